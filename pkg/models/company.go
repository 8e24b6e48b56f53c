package models

// CompanyRecord is the canonical, provider-independent shape every lookup
// adapter normalizes into. CNPJ, when present, contains exactly 14 digits;
// CNAECode is the registry's numeric code, not a display string. Phone
// fields hold raw digit strings (DDD + subscriber number).
type CompanyRecord struct {
	CNPJ            string `json:"cnpj"`
	LegalName       string `json:"razao_social"`
	TradeName       string `json:"nome_fantasia"`
	CNAECode        string `json:"cnae_codigo"`
	CNAEDescription string `json:"cnae_descricao"`
	City            string `json:"municipio"`
	State           string `json:"uf"`
	Phone1          string `json:"telefone_1"`
	Phone2          string `json:"telefone_2,omitempty"`
	Email           string `json:"email"`
	Street          string `json:"logradouro"`
	Number          string `json:"numero"`
	Neighborhood    string `json:"bairro"`
	PostalCode      string `json:"cep"`

	// Registry metadata, present only when the provider exposes it
	Capital      float64 `json:"capital_social,omitempty"`
	LegalNature  string  `json:"natureza_juridica,omitempty"`
	CompanySize  string  `json:"porte,omitempty"`
	Status       string  `json:"situacao_cadastral,omitempty"`
	FoundingDate string  `json:"data_abertura,omitempty"`
	OptanteSimples bool  `json:"opcao_simples,omitempty"`
	OptanteMEI     bool  `json:"opcao_mei,omitempty"`
}

// CNAEEntry is one row of the industry-code catalog
type CNAEEntry struct {
	ID        string `json:"id"`
	Descricao string `json:"descricao"`
}
