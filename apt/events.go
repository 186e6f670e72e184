package apt

import (
	"encoding/json"
	"fmt"
)

// Listener is a callback function that receives events while a snapshot
// is loaded.
type Listener func(fmt.Stringer)

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// EventReleaseLoaded is emitted when a Release or InRelease file is parsed.
type EventReleaseLoaded struct {
	Path     string `json:"path,omitempty"`
	Origin   string `json:"origin,omitempty"`
	Suite    string `json:"suite,omitempty"`
	Codename string `json:"codename,omitempty"`
	Entries  int    `json:"entries,omitempty"`
}

func (e EventReleaseLoaded) String() string { return jsonString(e) }

// EventIndexLoaded is emitted when a Packages index file is parsed.
type EventIndexLoaded struct {
	Path     string `json:"path,omitempty"`
	Packages int    `json:"packages,omitempty"`
}

func (e EventIndexLoaded) String() string { return jsonString(e) }

// EventDebScanned is emitted when the control stanza of a .deb file is
// extracted.
type EventDebScanned struct {
	Path         string `json:"path,omitempty"`
	Package      string `json:"package,omitempty"`
	Version      string `json:"version,omitempty"`
	Architecture string `json:"architecture,omitempty"`
}

func (e EventDebScanned) String() string { return jsonString(e) }

// EventFileSkipped is emitted when a file is ignored, with the reason.
type EventFileSkipped struct {
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (e EventFileSkipped) String() string { return jsonString(e) }
