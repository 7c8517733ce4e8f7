// Package cpsdir implementa o cliente HTTP do diretório remoto de CPS
// (serviço externo, lento, paginado por intervalo de datas).
package cpsdir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bipagem/opme-api/internal/application/cases"
	"github.com/bipagem/opme-api/pkg/config"
)

var _ cases.DirectoryClient = (*Client)(nil)

// caseRecord registro como devolvido pela API externa (nomes de campo do wire).
type caseRecord struct {
	CPS            int64  `json:"CPS"`
	Patient        string `json:"PATIENT"`
	Professional   string `json:"PROFESSIONAL"`
	Agreement      string `json:"AGREEMENT"`
	UnidadeNegocio string `json:"UNIDADENEGOCIO"`
	CreatedAt      string `json:"CREATED_AT"`
}

// Client cliente do endpoint /cps/list-cps. Usa net/http da stdlib; o timeout
// é do próprio cliente (o serviço pode levar vários segundos para responder).
type Client struct {
	baseURL    string
	typeCPS    string
	typeGroup  string
	httpClient *http.Client
}

// NewClient constrói o cliente a partir da configuração.
func NewClient(cfg config.CPSDirConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		typeCPS:    cfg.TypeCPS,
		typeGroup:  cfg.TypeGroup,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListCases consulta os casos abertos no intervalo, para uma unidade de
// negócio, opcionalmente filtrando por cps_id. Status não-2xx vira erro
// (retryável pelo chamador; nada foi gravado).
func (c *Client) ListCases(ctx context.Context, q cases.DirectoryQuery) ([]cases.RemoteCase, error) {
	params := url.Values{}
	params.Set("start_date", q.StartDate.Format("2006-01-02"))
	params.Set("end_date", q.EndDate.Format("2006-01-02"))
	params.Set("type_cps", c.typeCPS)
	params.Set("type_group", c.typeGroup)
	if q.BusinessUnit != "" {
		params.Set("business_unit", q.BusinessUnit)
	}
	if q.CpsID > 0 {
		params.Set("cps_id", strconv.FormatInt(q.CpsID, 10))
	}

	reqURL := c.baseURL + "/cps/list-cps?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("montar requisição: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("consultar diretório de CPS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("diretório de CPS devolveu status %d: %s", resp.StatusCode, string(body))
	}

	var records []caseRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decodificar resposta do diretório: %w", err)
	}

	out := make([]cases.RemoteCase, 0, len(records))
	for _, rec := range records {
		out = append(out, cases.RemoteCase{
			CpsID:        rec.CPS,
			Patient:      rec.Patient,
			Professional: rec.Professional,
			Agreement:    rec.Agreement,
			BusinessUnit: rec.UnidadeNegocio,
			CreatedAt:    rec.CreatedAt,
		})
	}
	return out, nil
}
