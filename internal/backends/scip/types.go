package scip

// Metadata describes the indexer run that produced an index.
type Metadata struct {
	Version     string
	ToolInfo    *ToolInfo
	ProjectRoot string
}

// ToolInfo contains information about the indexing tool
type ToolInfo struct {
	Name      string
	Version   string
	Arguments []string
}

// Document is one source file of a SCIP index.
type Document struct {
	// RelativePath is the path relative to the project root
	RelativePath string

	// Language as reported by the indexer
	Language string

	// Occurrences are all symbol occurrences in this document
	Occurrences []Occurrence

	// Defined lists the symbols the document's SymbolInformation declares
	Defined []string
}

// Occurrence is a single symbol occurrence. Ranges are not kept; only the
// file each symbol lives in matters at file granularity.
type Occurrence struct {
	Symbol      string
	SymbolRoles int32
}

// IsDefinition reports whether the occurrence defines its symbol.
func (o Occurrence) IsDefinition() bool {
	return o.SymbolRoles&SymbolRoleDefinition != 0
}

// SymbolRole constants (from SCIP protocol)
const (
	SymbolRoleDefinition        int32 = 1
	SymbolRoleImport            int32 = 2
	SymbolRoleWriteAccess       int32 = 4
	SymbolRoleReadAccess        int32 = 8
	SymbolRoleGenerated         int32 = 16
	SymbolRoleTest              int32 = 32
	SymbolRoleForwardDefinition int32 = 64
)
