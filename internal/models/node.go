package models

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
)

type BlockType string

const (
	BlockMCQ       BlockType = "pb-mcq"
	BlockRating    BlockType = "pb-rating"
	BlockAnswer    BlockType = "pb-answer"
	BlockMessage   BlockType = "pb-message"
	BlockChoice    BlockType = "pb-choice"
	BlockMentoring BlockType = "pb-mentoring"

	BlockCourse     BlockType = "course"
	BlockChapter    BlockType = "chapter"
	BlockSequential BlockType = "sequential"
	BlockVertical   BlockType = "vertical"
	BlockHTML       BlockType = "html"
)

// Capability is a structural classification of a node used for traversal
// predicates, independent of the concrete block-type catalog.
type Capability string

const (
	CapabilityQuestion  Capability = "question"
	CapabilityMessage   Capability = "message"
	CapabilityChoice    Capability = "choice"
	CapabilityContainer Capability = "container"
	CapabilityNone      Capability = ""
)

// QuestionCaption is the noun used when synthesizing default step titles.
const QuestionCaption = "Question"

func (bt BlockType) Capability() Capability {
	switch bt {
	case BlockMCQ, BlockRating, BlockAnswer:
		return CapabilityQuestion
	case BlockMessage:
		return CapabilityMessage
	case BlockChoice:
		return CapabilityChoice
	case BlockMentoring, BlockCourse, BlockChapter, BlockSequential, BlockVertical:
		return CapabilityContainer
	default:
		return CapabilityNone
	}
}

func (bt BlockType) IsQuestion() bool { return bt.Capability() == CapabilityQuestion }
func (bt BlockType) IsMessage() bool  { return bt.Capability() == CapabilityMessage }
func (bt BlockType) IsChoice() bool   { return bt.Capability() == CapabilityChoice }

// HasChildren reports whether this block type owns child nodes. Question
// blocks qualify too: MCQ and rating blocks carry choice children.
func (bt BlockType) HasChildren() bool {
	switch bt {
	case BlockMentoring, BlockCourse, BlockChapter, BlockSequential, BlockVertical, BlockMCQ, BlockRating:
		return true
	default:
		return false
	}
}

// AnswerBearingTypes lists the question types whose submissions are exportable.
func AnswerBearingTypes() []BlockType {
	return []BlockType{BlockMCQ, BlockRating, BlockAnswer}
}

// NormalizeID strips the optional "?branch=...&version=..." qualifier from a
// usage id so equality comparisons are stable across call sites. The same id
// may arrive with or without qualifiers depending on which store produced it.
func NormalizeID(id string) string {
	if i := strings.IndexByte(id, '?'); i >= 0 {
		return id[:i]
	}
	return id
}

type FieldScope string

const (
	ScopeContent     FieldScope = "content"
	ScopeSettings    FieldScope = "settings"
	ScopeUserState   FieldScope = "user_state"
	ScopeUserInfo    FieldScope = "user_info"
	ScopePreferences FieldScope = "preferences"
)

// Field is one entry of a node's scoped field bag.
type Field struct {
	Scope FieldScope  `json:"scope"`
	Value interface{} `json:"value"`
}

// ContentNode is one addressable unit of the course tree. The engine only
// reads nodes; creation and deletion belong to the authoring side.
type ContentNode struct {
	ID        string    `json:"id" gorm:"primaryKey;size:255"`
	CourseID  string    `json:"course_id" gorm:"size:255;index;not null"`
	BlockType BlockType `json:"block_type" gorm:"size:64;index;not null" validate:"required"`
	ParentID  *string   `json:"parent_id" gorm:"size:255;index"`
	Position  int       `json:"position" gorm:"not null;default:0"`

	// Authoring attributes surfaced as columns for the common accessors.
	Name        string  `json:"name" gorm:"size:255;index"` // question id, unique within parent
	DisplayName string  `json:"display_name" gorm:"size:255"`
	Question    string  `json:"question" gorm:"type:text"` // question prompt text
	Weight      float64 `json:"weight" gorm:"default:1" validate:"gte=0"`
	MessageType string  `json:"message_type" gorm:"size:64"` // set on pb-message blocks
	Content     string  `json:"content" gorm:"type:text"`    // message body / choice display text
	Value       string  `json:"value" gorm:"size:255"`       // choice stored value

	// Scoped field bag, name -> {scope, value}. Per-student state lives here.
	Fields datatypes.JSON `json:"fields"`
}

func (ContentNode) TableName() string {
	return "content_nodes"
}

// NormalizedID returns the node's id with branch/version qualifiers removed.
func (n *ContentNode) NormalizedID() string {
	return NormalizeID(n.ID)
}

// FieldBag decodes the node's scoped field bag. A node without fields yields
// an empty map, not an error.
func (n *ContentNode) FieldBag() (map[string]Field, error) {
	bag := map[string]Field{}
	if len(n.Fields) == 0 {
		return bag, nil
	}
	if err := json.Unmarshal(n.Fields, &bag); err != nil {
		return nil, err
	}
	return bag, nil
}
