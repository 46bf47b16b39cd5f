// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type (
	// MarkdownMsg is help text rendered with glamour.
	MarkdownMsg string

	// Issue is a catalog entry with remediation guidance for one error code.
	Issue struct {
		code  Code
		mdMsg MarkdownMsg
	}
)

func (i *Issue) Code() Code {
	return i.code
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Title returns the text of the entry's first heading.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}

// Render renders the entry as terminal markdown using the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	filterNotFoundIssue = &Issue{
		code: CodeInternalFilterNotFound,
		mdMsg: `
# Filter not found!

A filter listed in ` + "`filters`" + ` of your config does not exist.

## Things you can try:
- List every filter blockbuild discovered:
~~~
$ blockbuild filters
~~~
- Project filters are named after their file: ` + "`src/filters/lang/sort.lua`" + ` is ` + "`sort`" + `.
- Module filters are prefixed with the module directory: ` + "`mymodule:sort`" + `.`,
	}

	packNotFoundMd = MarkdownMsg(`
# Pack directory missing!

Every pack listed in ` + "`packs`" + ` needs a directory under ` + "`<srcPath>/packs`" + `.

## Things you can try:
- Create the missing directory (` + "`src/packs/BP`" + ` or ` + "`src/packs/RP`" + `).
- Point ` + "`srcPath`" + ` in ` + "`blockbuild.config.json`" + ` at the right location.
- Remove the pack from ` + "`packs`" + ` if you do not need it.`)

	bpNotFoundIssue = &Issue{code: CodeInternalBPNotFound, mdMsg: packNotFoundMd}
	rpNotFoundIssue = &Issue{code: CodeInternalRPNotFound, mdMsg: packNotFoundMd}

	definitionOptionsIssue = &Issue{
		code: CodeRuntimeDefinitionOptions,
		mdMsg: `
# Filter never registered itself!

Every filter must call ` + "`filter(...)`" + ` exactly once while it is loaded, even when it
takes no arguments.

## Example:
~~~lua
filter({})

function main(data)
  api.std.log("hello")
end
~~~`,
	}

	argumentsNoParseIssue = &Issue{
		code: CodeRuntimeArgumentsNoParse,
		mdMsg: `
# Arguments validator has no parse method!

The ` + "`arguments`" + ` value passed to ` + "`filter(...)`" + ` must expose a ` + "`parse`" + ` function.

## Example:
~~~lua
filter({
  arguments = api.std.schema([[{ target: string }]]),
})
~~~`,
	}

	configSchemaIssue = &Issue{
		code: CodeSchemaConfig,
		mdMsg: `
# Invalid configuration!

` + "`blockbuild.config.json`" + ` does not match the expected schema.

## Minimal valid config:
~~~json
{
  "packName": "my-addon",
  "packs": ["BP", "RP"],
  "filters": []
}
~~~`,
	}

	issues = map[Code]*Issue{
		filterNotFoundIssue.Code():    filterNotFoundIssue,
		bpNotFoundIssue.Code():        bpNotFoundIssue,
		rpNotFoundIssue.Code():        rpNotFoundIssue,
		definitionOptionsIssue.Code(): definitionOptionsIssue,
		argumentsNoParseIssue.Code():  argumentsNoParseIssue,
		configSchemaIssue.Code():      configSchemaIssue,
	}
)

// Values returns every catalog entry ordered by code.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int {
		return strings.Compare(string(a.code), string(b.code))
	})
	return out
}

// Get returns the catalog entry for code, or nil.
func Get(code Code) *Issue {
	return issues[code]
}
