package members

type ListMembersQuery struct {
	Search *string `query:"search" json:"search,omitempty" mod:"trim" validate:"omitempty,max=100"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
	Message string    `json:"message,omitempty"`
}
