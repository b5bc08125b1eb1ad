package session

import (
	"sync"
	"testing"
)

func TestStorePutReplaces(t *testing.T) {
	s := NewStore()
	s.Put(Profile{ID: 1, FirstName: "Alice", Role: "student"})
	s.Put(Profile{ID: 1, FirstName: "Alice", Role: "faculty"})

	p, ok := s.Get(1)
	if !ok {
		t.Fatal("profile missing after Put")
	}
	if p.Role != "faculty" {
		t.Errorf("Role = %q, want faculty (second Put must replace the first)", p.Role)
	}
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()
	s.Put(Profile{ID: 7})
	s.Delete(7)
	if _, ok := s.Get(7); ok {
		t.Error("profile still present after Delete")
	}
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	s.Put(Profile{ID: 1, FirstName: "Alice", LastName: "Smith"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if p, ok := s.Get(1); ok && p.DisplayName() != "Alice Smith" {
					t.Errorf("DisplayName = %q", p.DisplayName())
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDisplayName(t *testing.T) {
	if got := (Profile{FirstName: "Alice"}).DisplayName(); got != "Alice" {
		t.Errorf("DisplayName = %q, want Alice", got)
	}
	if got := (Profile{FirstName: "Alice", LastName: "Smith"}).DisplayName(); got != "Alice Smith" {
		t.Errorf("DisplayName = %q, want Alice Smith", got)
	}
}
