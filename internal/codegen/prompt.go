package codegen

import (
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = `You are an automated UI-code generator.
- Output valid React for the web (Next.js app router, TypeScript), never React Native, Vue or SFC syntax.
- Use className, never class. Style with TailwindCSS.
- Every file is a complete module: all JSX tags closed, one default-exported functional component per page.
- Use shadcn/ui or lucide-react components where they fit.
- The result should look like a professional landing page.
- Answer with a single JSON object and nothing else: {"files": {"<path>": "<code>"}, "context": "<description>"}.`

// userPrompt builds the request for one page. Previously generated pages are
// listed in filename order so repeated requests produce the same prompt.
func userPrompt(req Request, expected string, palette []string) string {
	var b strings.Builder

	b.WriteString("The user drew the pages of a website on paper. You cannot see the drawings; ")
	b.WriteString("this JSON holds the detected UI elements of every page, keyed by sketch filename:\n\n")
	b.Write(req.Layout)
	b.WriteString("\n\n")

	b.WriteString("Coordinates are [x1, y1, x2, y2] with the origin at the top-left. ")
	b.WriteString("Elements sharing a section_index form one horizontal row, ordered by order_in_section. ")
	b.WriteString("texts holds the handwriting found inside an element; unassigned_text was found outside every element. ")
	b.WriteString("Labels such as TextButton may be turned into sensible UI copy.\n\n")

	fmt.Fprintf(&b, "Generate the page for %q and return it under the path %q.\n", req.Filename, expected)

	if len(palette) > 0 {
		fmt.Fprintf(&b, "Use this color palette: %s.\n", strings.Join(palette, ", "))
	}

	if len(req.Components) > 0 {
		b.WriteString("\nPages generated earlier. Keep shared parts such as navigation and footer consistent with them:\n")
		names := make([]string, 0, len(req.Components))
		for name := range req.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "\n--- %s ---\n%s\n", name, req.Components[name])
		}
	}

	b.WriteString("\nIn context, describe the page in two or three sentences for use when later pages are generated.")
	return b.String()
}
