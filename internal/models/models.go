package models

import "time"

// ContentRecord is a rated video annotation owned by the backend.
type ContentRecord struct {
	ID           string    `json:"id"`
	VideoTitle   string    `json:"videoTitle,omitempty"`
	VideoURL     string    `json:"videoUrl"`
	Comment      string    `json:"comment"`
	Rating       int       `json:"rating"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatorName  string    `json:"creatorName,omitempty"`
	CreatorURL   string    `json:"creatorUrl,omitempty"`
	PostedBy     *Poster   `json:"postedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// Poster identifies the account that posted a record.
type Poster struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Contents is the collection payload returned by GET /content.
type Contents struct {
	Data []ContentRecord `json:"data"`
}

// CreateContent is the body of POST /content.
type CreateContent struct {
	VideoURL string `json:"videoUrl"`
	Comment  string `json:"comment"`
	Rating   int    `json:"rating"`
}

// UpdateContent is the body of PATCH /content/{id}. Only comment and rating are editable.
type UpdateContent struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// Credential is the transient username/password pair used to obtain a session.
// It is never persisted.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// RegisterRequest is the body of POST /user.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RegisterResponse is returned by POST /user.
type RegisterResponse struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name"`
}

// Session is the client-side view of being authenticated.
// LoggedIn implies both Token and Username are non-empty; the converse does not hold.
type Session struct {
	Token    string
	Username string
	LoggedIn bool
}

// User is an account held by the development backend.
type User struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Poster returns the public view of u attached to records it posts.
func (u User) Poster() *Poster {
	return &Poster{ID: u.ID, Username: u.Username, Name: u.Name}
}
