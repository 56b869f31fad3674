package providers

import (
	"github.com/jrsteele09/go-social-connect/internal/utils"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/sessions"
)

const unknownUsername = "Unknown"

// UserData is the profile returned by one platform. The concrete types are FacebookUser,
// InstagramUser, TwitterUser and AmazonUser.
type UserData interface {
	Platform() platforms.Platform
	isUserData()
}

type FacebookUser struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Email *string        `json:"email,omitempty"`
	Pages []FacebookPage `json:"pages,omitempty"`
}

// FacebookPage is a page the user manages.
type FacebookPage struct {
	ID                       string            `json:"id"`
	Name                     string            `json:"name"`
	InstagramBusinessAccount *InstagramAccount `json:"instagram_business_account,omitempty"`
}

type InstagramAccount struct {
	ID string `json:"id"`
}

type InstagramUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	PageID   string `json:"pageId"`
	PageName string `json:"pageName"`
}

type TwitterUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type AmazonUser struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Email  *string `json:"email,omitempty"`
}

func (FacebookUser) Platform() platforms.Platform  { return platforms.Facebook }
func (InstagramUser) Platform() platforms.Platform { return platforms.Instagram }
func (TwitterUser) Platform() platforms.Platform   { return platforms.Twitter }
func (AmazonUser) Platform() platforms.Platform    { return platforms.Amazon }

func (FacebookUser) isUserData()  {}
func (InstagramUser) isUserData() {}
func (TwitterUser) isUserData()   {}
func (AmazonUser) isUserData()    {}

// Normalize maps platform specific profile data to the stored account identity. Username falls
// back to the display name, then to "Unknown"; a missing email becomes "".
func Normalize(u UserData) sessions.Account {
	switch v := u.(type) {
	case FacebookUser:
		return account(v.ID, "", v.Name, utils.Value(v.Email))
	case *FacebookUser:
		return Normalize(*v)
	case InstagramUser:
		return account(v.ID, v.Username, v.Name, "")
	case *InstagramUser:
		return Normalize(*v)
	case TwitterUser:
		return account(v.ID, v.Username, v.Name, "")
	case *TwitterUser:
		return Normalize(*v)
	case AmazonUser:
		return account(v.UserID, "", v.Name, utils.Value(v.Email))
	case *AmazonUser:
		return Normalize(*v)
	}
	return sessions.Account{Username: unknownUsername}
}

func account(id, username, name, email string) sessions.Account {
	if username == "" {
		username = name
	}
	if username == "" {
		username = unknownUsername
	}
	return sessions.Account{UserID: id, Username: username, Email: email}
}
