package catalog

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/jsonc"
)

// Catalog is the normalized, read-only form of the permission specification.
type Catalog struct {
	permissions map[string]struct{}
	roles       map[string]map[string]struct{}
	options     map[string]any
}

// document mirrors the raw JSON shape of the catalog file.
type document struct {
	Permissions []string            `json:"permissions"`
	Roles       map[string][]string `json:"roles"`
	Options     map[string]any      `json:"options"`
}

// Load reads and normalizes the catalog file at path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}

	return Parse(raw)
}

// Parse normalizes a raw catalog document. Comments and trailing commas in
// the input are tolerated, and an absent permissions or roles field counts
// as empty; structural violations are not tolerated.
func Parse(raw []byte) (*Catalog, error) {
	var doc document

	// A wrong shape for any of the three fields fails the unmarshal, which
	// is exactly the structural validation the loader needs.
	if err := json.Unmarshal(jsonc.ToJSON(raw), &doc); err != nil {
		return nil, errors.Wrap(ErrMalformedCatalog, err.Error())
	}

	c := &Catalog{
		permissions: make(map[string]struct{}, len(doc.Permissions)),
		roles:       make(map[string]map[string]struct{}, len(doc.Roles)),
		options:     doc.Options,
	}

	if c.options == nil {
		c.options = map[string]any{}
	}

	for _, perm := range doc.Permissions {
		c.permissions[perm] = struct{}{}
	}

	for role, perms := range doc.Roles {
		assigned := make(map[string]struct{}, len(perms))

		for _, perm := range perms {
			// A role referencing an undeclared permission is tolerated: the
			// reference is dropped from the role's effective set.
			if _, ok := c.permissions[perm]; !ok {
				log.Warn().Str("role", role).Str("permission", perm).
					Msg("catalog role references undeclared permission, dropping")

				continue
			}

			assigned[perm] = struct{}{}
		}

		c.roles[role] = assigned
	}

	return c, nil
}

// Permissions returns the declared permission names.
func (c *Catalog) Permissions() map[string]struct{} {
	return c.permissions
}

// Roles returns the declared role names mapped to their effective
// permission sets (undeclared references already dropped).
func (c *Catalog) Roles() map[string]map[string]struct{} {
	return c.roles
}

// HasPermission reports whether the catalog declares the permission name.
func (c *Catalog) HasPermission(name string) bool {
	_, ok := c.permissions[name]
	return ok
}

// HasRole reports whether the catalog declares the role name.
func (c *Catalog) HasRole(name string) bool {
	_, ok := c.roles[name]
	return ok
}
