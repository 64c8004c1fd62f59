package domain

import "time"

// CanvasScopeType says what a Business Model Canvas describes.
type CanvasScopeType string

const (
	ScopeCompany    CanvasScopeType = "Company"
	ScopeProduct    CanvasScopeType = "Product"
	ScopeSegment    CanvasScopeType = "Segment"
	ScopeInitiative CanvasScopeType = "Initiative"
)

// ValidCanvasScopeType reports whether t is a known scope type.
func ValidCanvasScopeType(t CanvasScopeType) bool {
	switch t {
	case ScopeCompany, ScopeProduct, ScopeSegment, ScopeInitiative:
		return true
	}
	return false
}

// BlockType identifies one of the nine fixed BMC blocks.
type BlockType string

const (
	BlockKeyPartners           BlockType = "KeyPartners"
	BlockKeyActivities         BlockType = "KeyActivities"
	BlockKeyResources          BlockType = "KeyResources"
	BlockValuePropositions     BlockType = "ValuePropositions"
	BlockCustomerRelationships BlockType = "CustomerRelationships"
	BlockChannels              BlockType = "Channels"
	BlockCustomerSegments      BlockType = "CustomerSegments"
	BlockCostStructure         BlockType = "CostStructure"
	BlockRevenueStreams        BlockType = "RevenueStreams"
)

// BlockTypes is the canonical ordered set of the nine BMC blocks. Every
// canvas has exactly one block of each type, created with the canvas.
var BlockTypes = []BlockType{
	BlockKeyPartners,
	BlockKeyActivities,
	BlockKeyResources,
	BlockValuePropositions,
	BlockCustomerRelationships,
	BlockChannels,
	BlockCustomerSegments,
	BlockCostStructure,
	BlockRevenueStreams,
}

// ValidBlockType reports whether t is one of the nine block types.
func ValidBlockType(t BlockType) bool {
	for _, b := range BlockTypes {
		if b == t {
			return true
		}
	}
	return false
}

// CanvasBlock is one of the nine sections of a canvas, holding ordered
// free-text items.
type CanvasBlock struct {
	ID        string    `json:"id"`
	CanvasID  string    `json:"canvasId"`
	BlockType BlockType `json:"blockType"`
	Position  int       `json:"position"`
	Items     []string  `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Canvas is a Business Model Canvas. Blocks are created atomically with
// the canvas and can never be added or removed, only edited.
type Canvas struct {
	ID        string          `json:"id"`
	OrgID     string          `json:"orgId"`
	Name      string          `json:"name"`
	ScopeType CanvasScopeType `json:"scopeType"`
	ScopeRef  string          `json:"scopeRef,omitempty"`
	Blocks    []*CanvasBlock  `json:"blocks,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
