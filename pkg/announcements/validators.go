package announcements

type ListAnnouncementsQuery struct {
	Limit int `query:"limit" json:"limit,omitempty" default:"5" validate:"min=1,max=50"`
}

type CreateAnnouncementPayload struct {
	Title   string  `json:"title" mod:"trim" validate:"required,max=200"`
	Content string  `json:"content" validate:"max=10000"`
	Date    *string `json:"date,omitempty" validate:"omitempty,date"`
}
