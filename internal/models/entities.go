package models

// Author is one credited author of a paper. The email doubles as the
// cross-reference key to Chair records.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	Department  string `json:"department,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Topic is a submission topic. Canonical-topic equivalence classes are
// derived per engine run, never stored here.
type Topic struct {
	TopicID int    `json:"topic_id"`
	Name    string `json:"name"`
}

// Room is a physical room with a seating capacity.
type Room struct {
	RoomID   int    `json:"room_id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Chair is a candidate session chair. TopicIDs are inferred once per run
// from authored papers unless pre-set.
type Chair struct {
	ChairID      int    `json:"chair_id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	ArrivalDay   int    `json:"arrival_day"`
	DepartureDay int    `json:"departure_day"`
	TopicIDs     []int  `json:"topic_ids,omitempty"`
}

// Paper is an accepted submission. Immutable once loaded; the engine only
// ever places papers, never creates them.
type Paper struct {
	PaperID   int      `json:"paper_id"`
	Title     string   `json:"title"`
	Authors   []Author `json:"authors,omitempty"`
	CorrEmail string   `json:"corr_email,omitempty"`
	PrefIDs   []int    `json:"pref_ids,omitempty"` // rank 0 = first choice
	Comment   string   `json:"comment,omitempty"`
}
