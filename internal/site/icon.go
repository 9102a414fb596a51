package site

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Icon is the closed set of icons the templates know how to draw.
type Icon int

const (
	IconNone Icon = iota
	IconGitHub
	IconLinkedIn
	IconTwitter
	IconInstagram
	IconWhatsApp
	IconEnvelope
	IconPhone
	IconCode
	IconMobile
	IconDesktop
	IconExternalLink
	IconLightbulb
	IconRocket
	IconChartLine
	IconTerminal
	IconGo
	IconJavaScript
	IconTypeScript
	IconPython
	IconReact
	IconHTML5
	IconCSS3
	IconTailwind
	IconPostgres
	IconSQLite
	IconDocker
	IconGit
	IconLinux
	IconFigma
	IconSupabase
	IconCloudinary
	iconCount
)

type iconSpec struct {
	name  string
	class string
}

var icons = [iconCount]iconSpec{
	IconNone:         {"", ""},
	IconGitHub:       {"github", "fa-brands fa-github"},
	IconLinkedIn:     {"linkedin", "fa-brands fa-linkedin"},
	IconTwitter:      {"twitter", "fa-brands fa-twitter"},
	IconInstagram:    {"instagram", "fa-brands fa-instagram"},
	IconWhatsApp:     {"whatsapp", "fa-brands fa-whatsapp"},
	IconEnvelope:     {"envelope", "fa-solid fa-envelope"},
	IconPhone:        {"phone", "fa-solid fa-phone"},
	IconCode:         {"code", "fa-solid fa-code"},
	IconMobile:       {"mobile", "fa-solid fa-mobile-screen"},
	IconDesktop:      {"desktop", "fa-solid fa-desktop"},
	IconExternalLink: {"external-link", "fa-solid fa-up-right-from-square"},
	IconLightbulb:    {"lightbulb", "fa-solid fa-lightbulb"},
	IconRocket:       {"rocket", "fa-solid fa-rocket"},
	IconChartLine:    {"chart-line", "fa-solid fa-chart-line"},
	IconTerminal:     {"terminal", "fa-solid fa-terminal"},
	IconGo:           {"go", "devicon-go-original-wordmark colored"},
	IconJavaScript:   {"javascript", "devicon-javascript-plain colored"},
	IconTypeScript:   {"typescript", "devicon-typescript-plain colored"},
	IconPython:       {"python", "devicon-python-plain colored"},
	IconReact:        {"react", "devicon-react-original colored"},
	IconHTML5:        {"html5", "devicon-html5-plain colored"},
	IconCSS3:         {"css3", "devicon-css3-plain colored"},
	IconTailwind:     {"tailwind", "devicon-tailwindcss-original colored"},
	IconPostgres:     {"postgres", "devicon-postgresql-plain colored"},
	IconSQLite:       {"sqlite", "devicon-sqlite-plain colored"},
	IconDocker:       {"docker", "devicon-docker-plain colored"},
	IconGit:          {"git", "devicon-git-plain colored"},
	IconLinux:        {"linux", "devicon-linux-plain"},
	IconFigma:        {"figma", "devicon-figma-plain colored"},
	IconSupabase:     {"supabase", "devicon-supabase-plain colored"},
	IconCloudinary:   {"cloudinary", "fa-solid fa-cloud"},
}

var iconsByName = func() map[string]Icon {
	m := make(map[string]Icon, len(icons))
	for i, spec := range icons {
		m[spec.name] = Icon(i)
	}
	return m
}()

// ParseIcon maps a name to its Icon. Unknown names are an error.
func ParseIcon(name string) (Icon, error) {
	if i, ok := iconsByName[name]; ok {
		return i, nil
	}
	return IconNone, fmt.Errorf("unknown icon %q", name)
}

func (i Icon) valid() bool { return i >= 0 && i < iconCount }

func (i Icon) String() string {
	if !i.valid() {
		return fmt.Sprintf("Icon(%d)", int(i))
	}
	return icons[i].name
}

// Class is the CSS class list of the icon font glyph.
func (i Icon) Class() string {
	if !i.valid() {
		return ""
	}
	return icons[i].class
}

func (i *Icon) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseIcon(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*i = parsed
	return nil
}

func (i Icon) MarshalYAML() (any, error) {
	return i.String(), nil
}
