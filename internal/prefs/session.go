package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const sessionFile = "session.json"

// Session is the UI state restored at startup.
type Session struct {
	ActiveTabID string `json:"active_tab_id,omitempty"`
	ContainerID string `json:"container_id,omitempty"`
}

// Dir overrides the directory session state is stored in; empty means the
// user config dir.
var Dir string

func sessionPath() (string, error) {
	dir := Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "oratabs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionFile), nil
}

func SaveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadSession returns the zero Session when nothing was saved yet.
func LoadSession() (Session, error) {
	path, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}
