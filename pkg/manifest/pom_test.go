package manifest

import (
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/pomgraph/pkg/cache"
	pgerrors "github.com/matzehuels/pomgraph/pkg/errors"
)

const samplePOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>example-parent</artifactId>
    <version>2.1</version>
  </parent>
  <artifactId>my-app</artifactId>
  <name>My App</name>

  <properties>
    <guava.version>31.0-jre</guava.version>
    <project.build.sourceEncoding> UTF-8 </project.build.sourceEncoding>
  </properties>

  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.springframework</groupId>
        <artifactId>spring-framework-bom</artifactId>
        <version>5.3.0</version>
        <type>pom</type>
        <scope>import</scope>
      </dependency>
      <dependency>
        <groupId>junit</groupId>
        <artifactId>junit</artifactId>
        <version>4.13</version>
      </dependency>
    </dependencies>
  </dependencyManagement>

  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>${guava.version}</version>
      <exclusions>
        <exclusion>
          <groupId>com.google.code.findbugs</groupId>
          <artifactId>jsr305</artifactId>
        </exclusion>
      </exclusions>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <scope>TEST</scope>
    </dependency>
    <dependency>
      <groupId>io.netty</groupId>
      <artifactId>netty-transport-native-epoll</artifactId>
      <version>4.1.0</version>
      <classifier>linux-x86_64</classifier>
      <optional>true</optional>
    </dependency>
  </dependencies>

  <profiles>
    <profile>
      <id>java17</id>
      <properties>
        <guava.version>99</guava.version>
        <jakarta.version>3.0</jakarta.version>
      </properties>
      <dependencies>
        <dependency>
          <groupId>jakarta.annotation</groupId>
          <artifactId>jakarta.annotation-api</artifactId>
          <version>${jakarta.version}</version>
        </dependency>
      </dependencies>
    </profile>
  </profiles>
</project>`

func TestParsePOM(t *testing.T) {
	m, err := ParsePOM([]byte(samplePOM))
	if err != nil {
		t.Fatalf("ParsePOM() error: %v", err)
	}

	if m.Group != "com.example" || m.Version != "2.1" {
		t.Errorf("inherited coordinates = %s:%s, want com.example:2.1", m.Group, m.Version)
	}
	if m.Artifact != "my-app" || m.Packaging != "jar" {
		t.Errorf("artifact/packaging = %s/%s, want my-app/jar", m.Artifact, m.Packaging)
	}
	if m.Parent == nil || m.Parent.Artifact != "example-parent" {
		t.Fatalf("Parent = %+v, want example-parent", m.Parent)
	}

	wantProps := map[string]string{
		"guava.version":                "31.0-jre",
		"project.build.sourceEncoding": "UTF-8",
		"jakarta.version":              "3.0",
	}
	for k, v := range wantProps {
		if m.Properties[k] != v {
			t.Errorf("Properties[%q] = %q, want %q", k, m.Properties[k], v)
		}
	}

	if len(m.Dependencies) != 4 {
		t.Fatalf("len(Dependencies) = %d, want 4", len(m.Dependencies))
	}
	guava := m.Dependencies[0]
	if guava.Version != "${guava.version}" {
		t.Errorf("guava version = %q, placeholders must be kept verbatim", guava.Version)
	}
	if len(guava.Exclusions) != 1 || guava.Exclusions[0].Artifact != "jsr305" {
		t.Errorf("guava exclusions = %+v", guava.Exclusions)
	}
	if junit := m.Dependencies[1]; junit.Version != "" || junit.Scope != "test" {
		t.Errorf("junit = %+v, want empty version and scope test", junit)
	}
	if netty := m.Dependencies[2]; netty.Classifier != "linux-x86_64" || !netty.Optional {
		t.Errorf("netty = %+v, want classifier and optional", netty)
	}
	if prof := m.Dependencies[3]; prof.Profile != "java17" {
		t.Errorf("profile dependency Profile = %q, want java17", prof.Profile)
	}

	if len(m.Management) != 2 {
		t.Fatalf("len(Management) = %d, want 2", len(m.Management))
	}
	if bom := m.Management[0]; bom.Scope != "import" || bom.Type != "pom" {
		t.Errorf("bom = %+v, want import scope and pom type", bom)
	}
}

func TestParsePOMPackaging(t *testing.T) {
	m, err := ParsePOM([]byte(`<project>
  <groupId>g</groupId><artifactId>parent</artifactId><version>1</version>
  <packaging>pom</packaging>
</project>`))
	if err != nil {
		t.Fatalf("ParsePOM() error: %v", err)
	}
	if m.Packaging != "pom" {
		t.Errorf("Packaging = %q, want pom", m.Packaging)
	}
	if m.Parent != nil {
		t.Errorf("Parent = %+v, want nil", m.Parent)
	}
	if m.Properties == nil {
		t.Error("Properties should never be nil")
	}
}

func TestParsePOMLatin1(t *testing.T) {
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<project><groupId>g</groupId><artifactId>a</artifactId><version>1</version>" +
		"<name>Caf\xe9</name></project>")
	m, err := ParsePOM(data)
	if err != nil {
		t.Fatalf("ParsePOM() error: %v", err)
	}
	if m.Name != "Café" {
		t.Errorf("Name = %q, want Café", m.Name)
	}
}

func TestParsePOMErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not xml", "hello"},
		{"no artifactId", "<project><groupId>g</groupId></project>"},
		{"profile without id", "<project><artifactId>a</artifactId><profiles><profile/></profiles></project>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePOM([]byte(tt.data))
			if err == nil {
				t.Fatal("ParsePOM() expected error")
			}
			if !pgerrors.Is(err, pgerrors.ErrCodeInvalidManifest) {
				t.Errorf("code = %v, want %v", pgerrors.GetCode(err), pgerrors.ErrCodeInvalidManifest)
			}
		})
	}
}

func TestMapFetcher(t *testing.T) {
	f := NewMapFetcher(&Manifest{Group: "g", Artifact: "a", Version: "1"})

	m, err := f.Fetch(context.Background(), Request{Group: "g", Artifact: "a", Version: "1"})
	if err != nil || m.Artifact != "a" {
		t.Fatalf("Fetch() = %v, %v", m, err)
	}
	_, err = f.Fetch(context.Background(), Request{Group: "g", Artifact: "b", Version: "1"})
	if !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotFound", err)
	}
	if got := f.Calls("g:a:1"); got != 1 {
		t.Errorf("Calls(g:a:1) = %d, want 1", got)
	}
	if got := f.Calls(""); got != 2 {
		t.Errorf("Calls() = %d, want 2", got)
	}
}
