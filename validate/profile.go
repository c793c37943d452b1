// Package validate checks Key Object Selection manifests against the DICOM
// module rules and the IHE XDS-I.b and MADO profile additions.
package validate

// Profile selects the rule set applied by Validate.
type Profile string

const (
	// ProfileNone applies the generic KOS rules.
	ProfileNone Profile = ""
	// ProfileXDSIManifest adds the IHE XDS-I.b imaging manifest requirements.
	ProfileXDSIManifest Profile = "IHE_XDSI_MANIFEST"
	// ProfileMADO applies the IHE MADO overrides.
	ProfileMADO Profile = "IHE_MADO"
)

// Profiles lists the named profiles.
var Profiles = []Profile{ProfileNone, ProfileXDSIManifest, ProfileMADO}

// ParseProfile maps a command line or configuration name to a Profile.
// "none" and the empty string select the generic rules. Unknown names are
// returned unchanged; Validate falls back to the generic rules for them.
func ParseProfile(name string) Profile {
	switch name {
	case "", "none", "NONE":
		return ProfileNone
	}
	return Profile(name)
}

func (p Profile) String() string {
	if p == ProfileNone {
		return "none"
	}
	return string(p)
}

// MarshalYAML renders the profile by its command line name.
func (p Profile) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}
