package server

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/matheus3301/counsel/internal/store"
)

// Seed is a TOML fixture of users and hires:
//
//	[[users]]
//	id = "ana"
//	name = "Ana Souza"
//	handle = "ana"
//	role = "client"
//
//	[[hires]]
//	client = "ana"
//	lawyer = "rui"
//	status = "accepted"
type Seed struct {
	Users []SeedUser `toml:"users"`
	Hires []SeedHire `toml:"hires"`
}

type SeedUser struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Handle  string `toml:"handle"`
	Picture string `toml:"picture"`
	Role    string `toml:"role"`
}

type SeedHire struct {
	Client string `toml:"client"`
	Lawyer string `toml:"lawyer"`
	Status string `toml:"status"`
}

// LoadSeed decodes a seed file.
func LoadSeed(path string) (*Seed, error) {
	var s Seed
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown seed keys: %v", undecoded)
	}
	return &s, nil
}

// Apply upserts every user and hire in one pass. Hires default to accepted.
func (s *Seed) Apply(db *store.DB) error {
	for i := range s.Users {
		u := s.Users[i]
		if u.Handle == "" {
			u.Handle = u.ID
		}
		if err := db.UpsertUser(&store.User{ID: u.ID, Name: u.Name, Handle: u.Handle, Picture: u.Picture, Role: u.Role}); err != nil {
			return err
		}
	}
	for _, h := range s.Hires {
		status := h.Status
		if status == "" {
			status = store.HireAccepted
		}
		if err := db.SetHire(&store.Hire{ClientID: h.Client, LawyerID: h.Lawyer, Status: status}); err != nil {
			return err
		}
	}
	return nil
}
