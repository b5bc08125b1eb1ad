// Package session keeps in-memory snapshots of signed-in user profiles.
// The auth flows are the only writers; everything else reads. A write
// replaces the whole snapshot, there are no partial updates.
package session

import "sync"

type Profile struct {
	ID               int64  `json:"id"`
	CampusID         string `json:"campus_id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	College          string `json:"college"`
	CourseTaken      string `json:"course_taken,omitempty"`
	MobileNum        string `json:"mobile_num,omitempty"`
	DOB              string `json:"dob,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	ProfilePhoto     string `json:"profile_photo,omitempty"`
}

func (p Profile) DisplayName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type Store struct {
	mu       sync.RWMutex
	profiles map[int64]Profile
}

func NewStore() *Store {
	return &Store{profiles: make(map[int64]Profile)}
}

// Put stores the snapshot for a user, replacing any prior value.
func (s *Store) Put(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *Store) Get(userID int64) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok
}

// Delete clears the snapshot at logout.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
}
