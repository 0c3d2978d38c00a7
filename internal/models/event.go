package models

import (
	"time"

	"github.com/uptrace/bun"
)

type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
)

// DefaultNFTNetwork is stamped on rows that have never been minted on-chain.
const DefaultNFTNetwork = "devnet"

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string      `bun:"id,pk" json:"id"`
	Title       string      `bun:"title,notnull" json:"title"`
	Description string      `bun:"description,notnull" json:"description"`
	StartDate   time.Time   `bun:"start_date,notnull" json:"startDate"`
	EndDate     time.Time   `bun:"end_date,notnull" json:"endDate"`
	Location    string      `bun:"location,notnull" json:"location"`
	CoverImage  *string     `bun:"cover_image" json:"coverImage"`
	Status      EventStatus `bun:"status,notnull" json:"status"`
	IsFeatured  bool        `bun:"is_featured,notnull" json:"isFeatured"`

	// Web3 NFT fields. Not settable through the validated create/update
	// path; only the defaults assigned at creation reach the row.
	NFTMintAddress *string    `bun:"nft_mint_address" json:"nftMintAddress"`
	NFTTxSignature *string    `bun:"nft_tx_signature" json:"nftTxSignature"`
	NFTNetwork     *string    `bun:"nft_network" json:"nftNetwork"`
	NFTMintedAt    *time.Time `bun:"nft_minted_at" json:"nftMintedAt"`

	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// CreateEventInput is the raw POST body. Dates travel as strings so a
// malformed timestamp surfaces as a field-level validation failure instead
// of a decode error.
type CreateEventInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Location    string  `json:"location"`
	CoverImage  *string `json:"coverImage"`
	Status      *string `json:"status"`
	IsFeatured  *bool   `json:"isFeatured"`
}

// UpdateEventInput is the raw PUT body. Every field is optional; a nil
// pointer means "leave untouched".
type UpdateEventInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Location    *string `json:"location"`
	CoverImage  *string `json:"coverImage"`
	Status      *string `json:"status"`
	IsFeatured  *bool   `json:"isFeatured"`
}
