package descriptions

import "sort"

// Tool names exposed over MCP
const (
	ToolExtractFields   = "drawing_extract_fields"
	ToolExtractTokens   = "drawing_extract_tokens"
	ToolValidateFile    = "drawing_validate_file"
	ToolSearchDirectory = "drawing_search_directory"
	ToolServerInfo      = "drawing_server_info"
)

const (
	DrawingExtractFieldsDescription = `Find the title block fields of an engineering drawing: job number, drawing number, revision, project name and drawing title.

**When to use:** Need the identifying fields of a drawing sheet for filing, transmittals, or cross-checking a drawing register.

**Why it's useful:** Locates each field label (for example "DWG NO" or "REV") and reads the value printed next to or below it, so it works on title blocks of any layout as long as the value sits right of or under its label.

**Examples:**
• Register check: "Get the drawing number and revision of S-201.pdf"
• Transmittal: "Extract all title block fields from every PDF in issued/"
• Scanned sheets: "Read the job number from scan-0042.tif" (requires OCR support)

**Common workflows:**
1. Filing: drawing_search_directory → drawing_extract_fields → rename or index by drawing number
2. QA: drawing_extract_fields → compare with register → flag mismatched revisions
3. Troubleshooting: drawing_extract_fields returns not found → drawing_extract_tokens with a query to see what text is near the label

**Best practices:** Pass "fields" to limit work to what you need. A field that is not found is reported as such, which differs from a field found with an empty value.`

	DrawingExtractTokensDescription = `List the positioned text tokens of a drawing with their page coordinates.

**When to use:** Need to see the raw text layer of a sheet, or to understand why a title block field was not found.

**Why it's useful:** Shows each token with x and y in page units (origin top left, y growing down), including tokens produced by OCR of scanned pages.

**Examples:**
• Debug a miss: "Show tokens of A-101.pdf containing 'rev'"
• Inspect one sheet: "List all tokens on page 2 of set.pdf"

**Best practices:** Use "query" to filter, since large drawings carry thousands of tokens.`

	DrawingValidateFileDescription = `Check that a drawing file can be loaded before extracting from it.

**When to use:** Before processing files from an unknown source, or to find broken files in a batch.

**Why it's useful:** Verifies the extension is supported, the size is within limits and the content parses as a PDF, an image or a JSON token list.

**Examples:**
• Batch safety: "Validate every drawing in incoming/ before extraction"
• Upload check: "Is received/A-500.pdf a readable drawing?"

**Best practices:** Validation failures are returned as a result with valid=false and a message, not as an error.`

	DrawingSearchDirectoryDescription = `Discover drawing files (PDF, raster images, JSON token lists) in a directory tree with fuzzy filename search.

**When to use:** Need to find drawings before extracting fields, or to locate a sheet by part of its number.

**Why it's useful:** Walks subdirectories, skips hidden folders and unsupported files, and matches the query against filename words.

**Examples:**
• Find a sheet: "Search for 'S-201' in the drawings folder"
• Inventory: "List all drawings under issued/2024"

**Best practices:** Leave the directory empty to search the configured drawing directory.`

	DrawingServerInfoDescription = `Get server capabilities, the configured field synonyms and the drawings in the default directory.

**When to use:** At the start of a session to learn which tools and fields are available and whether OCR is enabled.

**Why it's useful:** Reports the label synonyms, search steps and value patterns used for each field so results can be interpreted.

**Best practices:** Call once per session; directory contents are cached for a few minutes.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolExtractFields:   DrawingExtractFieldsDescription,
	ToolExtractTokens:   DrawingExtractTokensDescription,
	ToolValidateFile:    DrawingValidateFileDescription,
	ToolSearchDirectory: DrawingSearchDirectoryDescription,
	ToolServerInfo:      DrawingServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
