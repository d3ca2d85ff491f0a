package seed

// File is the top-level structure of a seed file.
//
//	lists:
//	  - name: Warmups
//	    prompts:
//	      - Describe your morning in three words
//	  - name: Journal
//	    text: |
//	      First prompt
//
//	      Second prompt
type File struct {
	Lists []ListEntry `yaml:"lists"`
}

// ListEntry is one list. Prompts and Text may be combined; Text is split on
// blank lines.
type ListEntry struct {
	Name    string   `yaml:"name"`
	Prompts []string `yaml:"prompts,omitempty"`
	Text    string   `yaml:"text,omitempty"`
}
