package domain

import (
	"fmt"
	"strconv"
	"time"
)

// FirstVersionPolicy decides what an explicit is_default=false means on the
// first version of a brand-new model.
type FirstVersionPolicy string

const (
	// FirstVersionForceDefault makes the first version default regardless of the request.
	FirstVersionForceDefault FirstVersionPolicy = "force"
	// FirstVersionReject fails the upload with ErrFirstVersionMustBeDefault.
	FirstVersionReject FirstVersionPolicy = "reject"
)

func ParseFirstVersionPolicy(s string) (FirstVersionPolicy, error) {
	switch p := FirstVersionPolicy(s); p {
	case FirstVersionForceDefault, FirstVersionReject:
		return p, nil
	case "":
		return FirstVersionForceDefault, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFirstVersionPolicy, s)
	}
}

// ResolveDefault turns the requested flag into the effective one. It runs
// before a version id is assigned; existing is the number of versions the
// model already has.
func (p FirstVersionPolicy) ResolveDefault(requested *bool, existing int) (bool, error) {
	if existing == 0 {
		if requested != nil && !*requested && p == FirstVersionReject {
			return false, ErrFirstVersionMustBeDefault
		}
		return true, nil
	}
	if requested == nil {
		return true, nil
	}
	return *requested, nil
}

// NewVersion carries the caller supplied fields of an upload.
type NewVersion struct {
	ArtifactURI    string
	Description    string
	Aliases        []string
	IsDefault      *bool
	ModelFramework string
	Labels         map[string]string
}

// VersionSet is a model together with its versions in creation order. Every
// registry write is a function over a VersionSet that the store commits as a
// whole or not at all.
type VersionSet struct {
	Model    *RegisteredModel
	Versions []*ModelVersion
}

func NewVersionSet(model *RegisteredModel) *VersionSet {
	return &VersionSet{Model: model, Versions: []*ModelVersion{}}
}

// Append assigns the next dense version id and applies the default/alias rules.
func (s *VersionSet) Append(nv NewVersion, policy FirstVersionPolicy, now time.Time) (*ModelVersion, error) {
	if nv.ArtifactURI == "" {
		return nil, ErrMissingArtifactURI
	}
	if err := ValidateModelFramework(nv.ModelFramework); err != nil {
		return nil, err
	}

	isDefault, err := policy.ResolveDefault(nv.IsDefault, len(s.Versions))
	if err != nil {
		return nil, err
	}

	aliases, err := NormalizeAliases(nv.Aliases)
	if err != nil {
		return nil, err
	}
	// "default" is placed by transferDefault, never where the caller put it.
	callerAliases := aliases[:0]
	for _, a := range aliases {
		if a == DefaultAlias {
			if !isDefault {
				return nil, ErrReservedAlias
			}
			continue
		}
		if s.aliasOwner(a) != nil {
			return nil, fmt.Errorf("%w: %q", ErrAliasConflict, a)
		}
		callerAliases = append(callerAliases, a)
	}

	labels := nv.Labels
	if labels == nil {
		labels = make(map[string]string)
	}

	v := &ModelVersion{
		ModelID:        s.Model.ModelID,
		VersionID:      strconv.Itoa(len(s.Versions) + 1),
		Description:    nv.Description,
		Aliases:        callerAliases,
		ArtifactURI:    nv.ArtifactURI,
		ModelFramework: nv.ModelFramework,
		Labels:         labels,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if isDefault {
		s.transferDefault(v, now)
	}

	s.Versions = append(s.Versions, v)
	s.Model.UpdatedAt = now
	return v, nil
}

// Resolve finds a version by numeric id or alias. An empty selector means the default version.
func (s *VersionSet) Resolve(selector string) (*ModelVersion, error) {
	if selector == "" {
		selector = DefaultAlias
	}
	if isVersionNumber(selector) {
		for _, v := range s.Versions {
			if v.VersionID == selector {
				return v, nil
			}
		}
		return nil, ErrVersionNotFound
	}
	if v := s.aliasOwner(selector); v != nil {
		return v, nil
	}
	return nil, ErrVersionNotFound
}

func (s *VersionSet) Default() *ModelVersion {
	for _, v := range s.Versions {
		if v.IsDefault {
			return v
		}
	}
	return nil
}

// AddAliases attaches aliases to the selected version. Adding "default" moves
// the default flag to that version.
func (s *VersionSet) AddAliases(selector string, aliases []string, now time.Time) (*ModelVersion, error) {
	target, err := s.Resolve(selector)
	if err != nil {
		return nil, err
	}
	aliases, err = NormalizeAliases(aliases)
	if err != nil {
		return nil, err
	}

	for _, a := range aliases {
		if a == DefaultAlias {
			continue
		}
		if owner := s.aliasOwner(a); owner != nil && owner != target {
			return nil, fmt.Errorf("%w: %q", ErrAliasConflict, a)
		}
	}

	for _, a := range aliases {
		switch {
		case a == DefaultAlias:
			if !target.IsDefault {
				s.transferDefault(target, now)
			}
		case !target.HasAlias(a):
			target.Aliases = append(target.Aliases, a)
		}
	}
	if target.IsDefault {
		target.pinDefaultAlias()
	}
	target.UpdatedAt = now
	s.Model.UpdatedAt = now
	return target, nil
}

// RemoveAliases detaches aliases from the selected version. Aliases the
// version does not hold are ignored.
func (s *VersionSet) RemoveAliases(selector string, aliases []string, now time.Time) (*ModelVersion, error) {
	target, err := s.Resolve(selector)
	if err != nil {
		return nil, err
	}
	for _, a := range aliases {
		if a == DefaultAlias {
			return nil, ErrCannotRemoveDefaultAlias
		}
	}
	for _, a := range aliases {
		target.removeAlias(a)
	}
	target.UpdatedAt = now
	s.Model.UpdatedAt = now
	return target, nil
}

func (s *VersionSet) SetDescription(selector, description string, now time.Time) (*ModelVersion, error) {
	target, err := s.Resolve(selector)
	if err != nil {
		return nil, err
	}
	target.Description = description
	target.UpdatedAt = now
	s.Model.UpdatedAt = now
	return target, nil
}

// Summary returns a copy of the model with its computed fields populated.
func (s *VersionSet) Summary() *RegisteredModel {
	m := *s.Model
	m.VersionCount = len(s.Versions)
	m.DefaultVersionID = ""
	if d := s.Default(); d != nil {
		m.DefaultVersionID = d.VersionID
	}
	return &m
}

// Clone deep-copies the set so a writer can mutate it without readers observing partial state.
func (s *VersionSet) Clone() *VersionSet {
	m := *s.Model
	m.Labels = make(map[string]string, len(s.Model.Labels))
	for k, v := range s.Model.Labels {
		m.Labels[k] = v
	}
	c := &VersionSet{Model: &m, Versions: make([]*ModelVersion, len(s.Versions))}
	for i, v := range s.Versions {
		c.Versions[i] = v.clone()
	}
	return c
}

func (s *VersionSet) aliasOwner(alias string) *ModelVersion {
	for _, v := range s.Versions {
		if v.HasAlias(alias) {
			return v
		}
	}
	return nil
}

func (s *VersionSet) transferDefault(to *ModelVersion, now time.Time) {
	for _, v := range s.Versions {
		if v != to && v.IsDefault {
			v.IsDefault = false
			v.removeAlias(DefaultAlias)
			v.UpdatedAt = now
		}
	}
	to.IsDefault = true
	to.pinDefaultAlias()
}
