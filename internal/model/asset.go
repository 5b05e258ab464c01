package model

import "time"

// AssetType classifies an asset for quote symbol resolution.
type AssetType string

const (
	AssetTypeStock  AssetType = "STOCK"
	AssetTypeETF    AssetType = "ETF"
	AssetTypeCrypto AssetType = "CRYPTO"
)

// ValidAssetTypes contains the allowed asset type values.
var ValidAssetTypes = map[AssetType]bool{
	AssetTypeStock: true, AssetTypeETF: true, AssetTypeCrypto: true,
}

// Asset represents a tradable instrument identified by its upper-case ticker.
type Asset struct {
	ID        string    `json:"id"`
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Type      AssetType `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}
