package domain

// ProductSnapshot — неизменяемая копия полей товара каталога,
// снятая в момент добавления позиции в корзину. Последующие изменения
// цены в каталоге не влияют на уже существующие позиции.
type ProductSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	CostMinor int64  `json:"cost_minor"`
	Rating    int32  `json:"rating"`
	ImageURL  string `json:"image_url"`
}
