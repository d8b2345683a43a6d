// Package skills locates skill directories on disk and validates the basic
// shape of their SKILL.md frontmatter. Skills are packaged as directories
// containing a SKILL.md file with YAML frontmatter followed by instructions,
// plus optional scripts/, references/ and assets/ resource directories.
package skills

// Skill represents a loaded skill with its metadata
type Skill struct {
	Name        string // Name declared in frontmatter
	Description string // Description declared in frontmatter
	Directory   string // Full path to the skill directory
	LineCount   int    // Number of lines in SKILL.md
}
