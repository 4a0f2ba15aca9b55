package model

// Profile is a user account's public record on the auction service.
// Name is the unique handle; only bio, avatar and banner are mutable
// through this client.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Bio     string `json:"bio"`
	Avatar  Media  `json:"avatar"`
	Banner  Media  `json:"banner"`
	Credits int    `json:"credits"`
	Count   struct {
		Listings int `json:"listings"`
		Wins     int `json:"wins"`
	} `json:"_count"`
}

// Meta is the pagination metadata the API attaches to collection
// responses.
type Meta struct {
	IsFirstPage  bool `json:"isFirstPage"`
	IsLastPage   bool `json:"isLastPage"`
	CurrentPage  int  `json:"currentPage"`
	PreviousPage *int `json:"previousPage"`
	NextPage     *int `json:"nextPage"`
	PageCount    int  `json:"pageCount"`
	TotalCount   int  `json:"totalCount"`
}
