package models

// User is the author of an issue as reported by the tracker.
type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// DisplayName returns the login, or a placeholder for deleted accounts.
func (u User) DisplayName() string {
	if u.Login == "" {
		return "ghost"
	}
	return u.Login
}

// Initial returns the first letter of the login for avatar fallbacks.
func (u User) Initial() string {
	name := u.DisplayName()
	for _, r := range name {
		return string(r)
	}
	return "?"
}
