package authapi

import "time"

type sessionNewRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
	Long bool   `json:"long"`
}

type elevateRequest struct {
	Pass string `json:"pass"`
}

type accountCreateRequest struct {
	Name string `json:"name"`
	Pass string `json:"pass"`
	Root bool   `json:"root"`
}

type sessionInfoResponse struct {
	Name     string    `json:"name"`
	Root     bool      `json:"root"`
	Elevated bool      `json:"elevated"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	Expires  time.Time `json:"expires"`
	Type     string    `json:"type"`
}

type accountResponse struct {
	Name       string    `json:"name"`
	Identifier string    `json:"identifier"`
	Root       bool      `json:"root"`
	Created    time.Time `json:"created"`
}

type accountListResponse struct {
	Accounts []accountResponse `json:"accounts"`
}
