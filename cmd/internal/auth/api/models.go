package authapi

import (
	"encoding/json"
	"time"

	"gatehouse/cmd/identity"
)

type signupRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// loginRequest keeps credential fields as raw JSON so the guard can check
// their runtime shape. Decoding them straight into string would make the
// decoder the de-facto validator, and its errors leak less precise reasons.
type loginRequest struct {
	Email    json.RawMessage `json:"email"`
	Password json.RawMessage `json:"password"`
}

// vulnerableLoginRequest decodes credential fields into any, exactly the
// permissive shape the injection demo needs.
type vulnerableLoginRequest struct {
	Email    any `json:"email"`
	Password any `json:"password"`
}

// profileResponse is the public account view. The password secret has no
// field here and can never serialize.
type profileResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type vulnerableLoginResponse struct {
	profileResponse
	Warning string `json:"warning"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func toProfileResponse(u identity.User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
