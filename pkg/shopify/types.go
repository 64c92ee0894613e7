package shopify

// Image is one product or variant image.
type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

// Variant is the Admin REST variant resource, limited to enrichment fields.
type Variant struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
	Price     string `json:"price"`
	ImageID   *int64 `json:"image_id"`
}

// Product is the Admin REST product resource, limited to enrichment fields.
type Product struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Image  *Image  `json:"image"`
	Images []Image `json:"images"`
}

// Metafield is one namespace/key/value triple from the Admin API. Bundle apps
// write their component recipes here under app-specific namespaces.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

type variantEnvelope struct {
	Variant Variant `json:"variant"`
}

type productEnvelope struct {
	Product Product `json:"product"`
}

type metafieldsEnvelope struct {
	Metafields []Metafield `json:"metafields"`
}
