package users

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
	User        Public `json:"user"`
}

type AvailabilityRequest struct {
	Availability string `json:"availability" validate:"required,availability"`
}

// Public is the user as exposed over the API.
type Public struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Availability string `json:"availability,omitempty"`
}
