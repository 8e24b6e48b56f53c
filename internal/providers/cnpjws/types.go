package cnpjws

// The comercial.cnpj.ws API nests almost everything and omits whatever a
// given registry record lacks, so every nested struct is a pointer and
// normalization nil-checks its way down.

// RawCompany is the /cnpj/{cnpj} response shape
type RawCompany struct {
	RazaoSocial     string            `json:"razao_social"`
	CapitalSocial   string            `json:"capital_social"`
	NaturezaJuridica *DescribedEntity `json:"natureza_juridica"`
	Porte           *DescribedEntity  `json:"porte"`
	Simples         *SimplesInfo      `json:"simples"`
	Estabelecimento *Establishment    `json:"estabelecimento"`
}

// DescribedEntity is a generic {id, descricao} pair
type DescribedEntity struct {
	ID        string `json:"id"`
	Descricao string `json:"descricao"`
}

// SimplesInfo carries the simplified-tax-regime flags
type SimplesInfo struct {
	Simples string `json:"simples"` // "Sim" / "Não"
	MEI     string `json:"mei"`
}

// Establishment is the registered business location
type Establishment struct {
	CNPJ              string           `json:"cnpj"`
	NomeFantasia      string           `json:"nome_fantasia"`
	SituacaoCadastral string           `json:"situacao_cadastral"`
	DataInicioAtividade string         `json:"data_inicio_atividade"`
	AtividadePrincipal *DescribedEntity `json:"atividade_principal"`
	DDD1              string           `json:"ddd1"`
	Telefone1         string           `json:"telefone1"`
	DDD2              string           `json:"ddd2"`
	Telefone2         string           `json:"telefone2"`
	Email             string           `json:"email"`
	TipoLogradouro    string           `json:"tipo_logradouro"`
	Logradouro        string           `json:"logradouro"`
	Numero            string           `json:"numero"`
	Bairro            string           `json:"bairro"`
	CEP               string           `json:"cep"`
	Cidade            *NamedEntity     `json:"cidade"`
	Estado            *StateEntity     `json:"estado"`
}

// NamedEntity is a generic {nome} wrapper
type NamedEntity struct {
	Nome string `json:"nome"`
}

// StateEntity carries the two-letter state code
type StateEntity struct {
	Sigla string `json:"sigla"`
}

// SearchResponse is the /pesquisa response shape
type SearchResponse struct {
	Total  int          `json:"total"`
	Pagina int          `json:"pagina"`
	Dados  []SearchRow  `json:"dados"`
}

// SearchRow is one establishment row from the search endpoint
type SearchRow struct {
	CNPJ              string           `json:"cnpj"`
	RazaoSocial       string           `json:"razao_social"`
	NomeFantasia      string           `json:"nome_fantasia"`
	AtividadePrincipal *DescribedEntity `json:"atividade_principal"`
	DDD1              string           `json:"ddd1"`
	Telefone1         string           `json:"telefone1"`
	DDD2              string           `json:"ddd2"`
	Telefone2         string           `json:"telefone2"`
	Email             string           `json:"email"`
	Logradouro        string           `json:"logradouro"`
	Numero            string           `json:"numero"`
	Bairro            string           `json:"bairro"`
	CEP               string           `json:"cep"`
	Municipio         string           `json:"municipio"`
	UF                string           `json:"uf"`
}

// apiError is the upstream error envelope
type apiError struct {
	Titulo   string `json:"titulo"`
	Detalhes string `json:"detalhes"`
}
