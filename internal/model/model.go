package model

// Party is an event as stored by the remote API. Date is an ISO-8601
// timestamp string exactly as the server returned it.
type Party struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// PartyDraft is the body sent when creating a party. The server assigns the id.
type PartyDraft struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// RSVP links a guest to a party.
type RSVP struct {
	ID      int `json:"id"`
	GuestID int `json:"guestId"`
	EventID int `json:"eventId"`
}

type Guest struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
