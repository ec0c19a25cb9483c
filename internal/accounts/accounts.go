package accounts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const StoreFile = "accounts.json"

// Account is one stored login identity.
type Account struct {
	Username    string `json:"username"`
	UUID        string `json:"uuid"`
	AccessToken string `json:"accessToken"`
}

// Store holds known accounts keyed by username.
type Store struct {
	Accounts map[string]Account `json:"accounts"`
}

// Load reads the account store from dir. A missing file yields an empty
// store rather than an error: launching without stored accounts falls back
// to offline identities.
func Load(dir string) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(dir, StoreFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{Accounts: make(map[string]Account)}, nil
		}
		return nil, fmt.Errorf("reading accounts: %w", err)
	}

	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing accounts: %w", err)
	}
	if s.Accounts == nil {
		s.Accounts = make(map[string]Account)
	}
	return &s, nil
}

// Get looks up username, degrading to the offline identity when the account
// is unknown.
func (s *Store) Get(username string) Account {
	if a, ok := s.Accounts[username]; ok {
		return a
	}
	return Offline(username)
}

// Offline builds the anonymous placeholder identity for username. The UUID
// is the md5 name UUID of "OfflinePlayer:<name>", the derivation
// offline-mode servers use, so the identity is stable across launches.
func Offline(username string) Account {
	id := uuid.NewMD5(uuid.NameSpaceOID, []byte("OfflinePlayer:"+username))
	return Account{Username: username, UUID: id.String()}
}
