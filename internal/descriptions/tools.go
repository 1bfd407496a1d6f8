package descriptions

import "sort"

// Tool names served over MCP.
const (
	ToolExtractFile   = "voter_extract_file"
	ToolSearch        = "voter_search"
	ToolFilters       = "voter_filters"
	ToolListDocuments = "voter_list_documents"
	ToolServerInfo    = "voter_server_info"
)

// Tool descriptions with practical examples and use cases

const (
	ExtractFileDescription = `Extract voter records from a single voter-roll PDF without storing them.

**When to use:** Checking how one document parses, previewing its records, or investigating why a document produced fewer records than expected.

**What you get:** The document header fields (district, area code, area name, ward), the region and subregion taken from the folders the file sits in, every extracted record in document order, and the number of entries discarded for a missing name.

**Examples:**
• Preview a roll: "Extract JHENAIGATI/KANSHA/roll-17.pdf and show the first ten voters"
• Check a ward: "Which ward does SREEBARDI/GOSAIPUR/WARD NO-4/a.pdf belong to?"

**Notes:** Paths may be absolute or relative to the corpus root and must stay inside it. Bangla digits are returned as ASCII digits. Fields that could not be found are empty strings.`

	SearchDescription = `Search the stored voter records.

**When to use:** Looking up a voter by name, voter number, parent name or address, or listing the voters of one area.

**Parameters:** q matches a substring of name, voter number, father, mother, address or area code; Bangla digits in q are normalized first. region, subregion, ward, area_code and dob are exact filters. Results are ordered by insertion and paged with page (from 1) and limit (default 20, max 500).

**Examples:**
• By voter number: q="৩৩০১২৩৪৫৬৭"
• One area: region="JHENAIGATI", ward="3", area_code="1234"

**Best practices:** Call voter_filters first to learn the valid region, subregion, ward and area code values.`

	FiltersDescription = `List the regions, subregions, wards and areas present in the store.

**When to use:** Building a search, or getting an overview of what the store holds.

**What you get:** A nested tree region > subregion > ward > area (code and name). Wards are ordered numerically. Blank regions are listed as "Unknown" and blank subregions or wards as "General".`

	ListDocumentsDescription = `List the voter-roll PDFs under the configured region folders.

**When to use:** Finding a document to pass to voter_extract_file, or checking what a batch run would process.

**What you get:** Every document in processing order with its region and subregion labels. Hidden files and folders are ignored. An optional region argument limits the listing to one region folder.`

	ServerInfoDescription = `Get server status and configuration.

**When to use:** Starting work with the server or troubleshooting.

**What you get:** Server name and version, corpus root, region folders, decoder, store backend, maximum document size, and the available tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolExtractFile:   ExtractFileDescription,
	ToolSearch:        SearchDescription,
	ToolFilters:       FiltersDescription,
	ToolListDocuments: ListDocumentsDescription,
	ToolServerInfo:    ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
