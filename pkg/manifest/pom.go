package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
)

// ParsePOM decodes a pom.xml document.
//
// groupId and version fall back to the parent's when the project omits them,
// and packaging defaults to "jar". Text values are trimmed but placeholders
// are kept verbatim. Properties declared in a profile only fill names the
// project itself leaves undefined.
func ParsePOM(data []byte) (*Manifest, error) {
	var pom pomProject
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&pom); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "malformed pom.xml")
	}

	m := &Manifest{
		Group:       strings.TrimSpace(pom.GroupID),
		Artifact:    strings.TrimSpace(pom.ArtifactID),
		Version:     strings.TrimSpace(pom.Version),
		Packaging:   strings.TrimSpace(pom.Packaging),
		Name:        strings.TrimSpace(pom.Name),
		Description: strings.TrimSpace(pom.Description),
		Properties:  map[string]string(pom.Properties),
	}
	if p := pom.Parent; p != nil {
		m.Parent = &Parent{
			Group:    strings.TrimSpace(p.GroupID),
			Artifact: strings.TrimSpace(p.ArtifactID),
			Version:  strings.TrimSpace(p.Version),
		}
		if m.Group == "" {
			m.Group = m.Parent.Group
		}
		if m.Version == "" {
			m.Version = m.Parent.Version
		}
	}
	if m.Packaging == "" {
		m.Packaging = artifact.DefaultPackaging
	}
	if m.Artifact == "" {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "pom.xml has no artifactId")
	}
	if m.Properties == nil {
		m.Properties = make(map[string]string)
	}

	m.Dependencies = convertDependencies(pom.Dependencies, "")
	m.Management = convertDependencies(pom.Management, "")
	for _, prof := range pom.Profiles {
		id := strings.TrimSpace(prof.ID)
		if id == "" {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "pom.xml declares a profile without id")
		}
		m.Dependencies = append(m.Dependencies, convertDependencies(prof.Dependencies, id)...)
		m.Management = append(m.Management, convertDependencies(prof.Management, id)...)
		for k, v := range prof.Properties {
			if _, ok := m.Properties[k]; !ok {
				m.Properties[k] = v
			}
		}
	}
	return m, nil
}

func convertDependencies(in []pomDependency, profile string) []Dependency {
	if len(in) == 0 {
		return nil
	}
	out := make([]Dependency, 0, len(in))
	for _, d := range in {
		dep := Dependency{
			Group:      strings.TrimSpace(d.GroupID),
			Artifact:   strings.TrimSpace(d.ArtifactID),
			Version:    strings.TrimSpace(d.Version),
			Classifier: strings.TrimSpace(d.Classifier),
			Type:       strings.TrimSpace(d.Type),
			Scope:      strings.ToLower(strings.TrimSpace(d.Scope)),
			Optional:   strings.EqualFold(strings.TrimSpace(d.Optional), "true"),
			Profile:    profile,
		}
		for _, ex := range d.Exclusions {
			dep.Exclusions = append(dep.Exclusions, artifact.Exclusion{
				Group:    strings.TrimSpace(ex.GroupID),
				Artifact: strings.TrimSpace(ex.ArtifactID),
			})
		}
		out = append(out, dep)
	}
	return out
}

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Packaging    string          `xml:"packaging"`
	Name         string          `xml:"name"`
	Description  string          `xml:"description"`
	Parent       *pomParent      `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Management   []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
	Profiles     []pomProfile    `xml:"profiles>profile"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomProfile struct {
	ID           string          `xml:"id"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Management   []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
}

type pomDependency struct {
	GroupID    string         `xml:"groupId"`
	ArtifactID string         `xml:"artifactId"`
	Version    string         `xml:"version"`
	Classifier string         `xml:"classifier"`
	Type       string         `xml:"type"`
	Scope      string         `xml:"scope"`
	Optional   string         `xml:"optional"`
	Exclusions []pomExclusion `xml:"exclusions>exclusion"`
}

type pomExclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// pomProperties decodes <properties>, whose child element names are the
// property names.
type pomProperties map[string]string

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if *p == nil {
		*p = make(pomProperties)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("properties: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return fmt.Errorf("property %s: %w", t.Name.Local, err)
			}
			(*p)[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}
