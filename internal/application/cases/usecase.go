// Package cases implementa o cache local de CPS com fallback remoto
// (write-through) e a sincronização em lote por intervalo de datas.
package cases

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/repository"
	"github.com/bipagem/opme-api/internal/metrics"
	"github.com/bipagem/opme-api/pkg/logger"
)

// Options parâmetros operacionais do controlador de cache/sincronização.
type Options struct {
	// BusinessUnits consultadas em paralelo no diretório remoto.
	BusinessUnits []string
	// LookbackDays janela padrão ao resolver um CPS individual.
	LookbackDays int
}

// CaseSyncUseCase controlador de cache/sincronização do diretório de CPS:
// resolve um caso (local → remoto → write-through) e pré-aquece o cache por
// intervalo de datas com upsert-sobrescrita.
type CaseSyncUseCase struct {
	cpsRepo repository.CpsRecordRepository
	client  DirectoryClient
	opts    Options
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewCaseSyncUseCase constrói o caso de uso. m pode ser nil.
func NewCaseSyncUseCase(
	cpsRepo repository.CpsRecordRepository,
	client DirectoryClient,
	opts Options,
	log *logger.Logger,
	m *metrics.Metrics,
) *CaseSyncUseCase {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 365
	}
	return &CaseSyncUseCase{cpsRepo: cpsRepo, client: client, opts: opts, log: log, metrics: m}
}

// ResolveResult resultado da resolução de um CPS.
type ResolveResult struct {
	Record *entity.CpsRecord
	// FromCache true quando atendido pelo cache local, sem chamada remota.
	FromCache bool
	// CacheDegraded true quando o caso foi resolvido remotamente mas o
	// write-through falhou; o registro devolvido continua utilizável.
	CacheDegraded bool
}

// ResolveCase resolve um CPS: cache local primeiro; em miss consulta o
// diretório remoto com a janela padrão de retrocesso e grava o resultado
// (upsert por cps_id+user_id) antes de devolver. domain.ErrCaseNotFound
// quando não existe em lugar nenhum.
func (uc *CaseSyncUseCase) ResolveCase(ctx context.Context, cpsID int64, userID string) (*ResolveResult, error) {
	if cpsID <= 0 || userID == "" {
		return nil, domain.ErrInvalidInput
	}

	cached, err := uc.cpsRepo.Get(ctx, cpsID, userID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		uc.metrics.IncRemoteLookup("hit_local")
		return &ResolveResult{Record: cached, FromCache: true}, nil
	}

	end := time.Now()
	start := end.AddDate(0, 0, -uc.opts.LookbackDays)
	remote, err := uc.fetchUnits(ctx, DirectoryQuery{StartDate: start, EndDate: end, CpsID: cpsID})
	if err != nil {
		uc.metrics.IncRemoteLookup("error")
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteDirectory, err)
	}
	if len(remote) == 0 {
		uc.metrics.IncRemoteLookup("miss")
		return nil, domain.ErrCaseNotFound
	}
	uc.metrics.IncRemoteLookup("hit_remote")

	rec := uc.toRecord(remote[0], userID)
	result := &ResolveResult{Record: rec}
	if err := uc.cpsRepo.Upsert(ctx, rec); err != nil {
		// O hit remoto continua utilizável; o cache fica defasado e o
		// chamador é avisado via CacheDegraded.
		result.CacheDegraded = true
		if uc.log != nil {
			uc.log.Warn().Err(err).Int64("cps_id", cpsID).Msg("write-through do CPS falhou")
		}
	}
	return result, nil
}

// SyncRange busca no diretório remoto todos os casos abertos em [start, end]
// e grava em lote no cache local, sobrescrevendo registros com o mesmo
// cps_id. Usado para pré-aquecer o cache e tornar resoluções subsequentes
// puramente locais.
func (uc *CaseSyncUseCase) SyncRange(ctx context.Context, userID string, start, end time.Time) (int, error) {
	if userID == "" || start.IsZero() || end.IsZero() || end.Before(start) {
		return 0, domain.ErrInvalidInput
	}
	began := time.Now()

	remote, err := uc.fetchUnits(ctx, DirectoryQuery{StartDate: start, EndDate: end})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrRemoteDirectory, err)
	}

	// Uma unidade de negócio pode devolver o mesmo CPS de outra; o último vence.
	unique := make(map[int64]RemoteCase, len(remote))
	for _, rc := range remote {
		unique[rc.CpsID] = rc
	}

	recs := make([]*entity.CpsRecord, 0, len(unique))
	for _, rc := range unique {
		recs = append(recs, uc.toRecord(rc, userID))
	}
	if len(recs) == 0 {
		return 0, nil
	}

	n, err := uc.cpsRepo.BulkUpsert(ctx, recs)
	if err != nil {
		return 0, err
	}
	uc.metrics.AddSyncedRecords(n)
	uc.metrics.ObserveSyncDuration(time.Since(began))
	if uc.log != nil {
		uc.log.Info().Int("synced", n).Msg("sincronização de CPS concluída")
	}
	return n, nil
}

// ListLocal lista o cache local do usuário.
func (uc *CaseSyncUseCase) ListLocal(ctx context.Context, userID string, limit, offset int) ([]*entity.CpsRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.cpsRepo.ListByUser(ctx, userID, limit, offset)
}

// fetchUnits consulta o diretório remoto em paralelo, uma requisição por
// unidade de negócio, e concatena os resultados. Falha de uma unidade é
// tolerada (log) desde que alguma outra responda; se todas falharem, o erro
// da primeira é propagado.
func (uc *CaseSyncUseCase) fetchUnits(ctx context.Context, q DirectoryQuery) ([]RemoteCase, error) {
	units := uc.opts.BusinessUnits
	if len(units) == 0 {
		units = []string{""}
	}

	var (
		mu       sync.Mutex
		all      []RemoteCase
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, unit := range units {
		unitQ := q
		unitQ.BusinessUnit = unit
		g.Go(func() error {
			got, err := uc.client.ListCases(gctx, unitQ)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				if uc.log != nil {
					uc.log.Warn().Err(err).Str("business_unit", unitQ.BusinessUnit).Msg("falha na consulta ao diretório de CPS")
				}
				return nil
			}
			all = append(all, got...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(failures) == len(units) {
		return nil, failures[0]
	}
	return all, nil
}

func (uc *CaseSyncUseCase) toRecord(rc RemoteCase, userID string) *entity.CpsRecord {
	openedAt, err := NormalizeOpenedAt(rc.CreatedAt)
	if err != nil && uc.log != nil {
		uc.log.Warn().Err(err).Int64("cps_id", rc.CpsID).Str("created_at", rc.CreatedAt).
			Msg("CREATED_AT remoto não reconhecido")
	}
	return &entity.CpsRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		CpsID:        rc.CpsID,
		Patient:      rc.Patient,
		Professional: rc.Professional,
		Agreement:    rc.Agreement,
		BusinessUnit: rc.BusinessUnit,
		OpenedAt:     openedAt,
		SyncedAt:     time.Now(),
	}
}

var dateOnlyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeOpenedAt converte o CREATED_AT remoto em timestamp. Datas sem hora
// (yyyy-mm-dd) recebem meio-dia fixo para não escorregarem de dia na
// conversão de timezone.
func NormalizeOpenedAt(createdAt string) (time.Time, error) {
	if createdAt == "" {
		return time.Time{}, fmt.Errorf("CREATED_AT vazio")
	}
	if dateOnlyRe.MatchString(createdAt) {
		d, err := time.Parse("2006-01-02", createdAt)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, createdAt); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("formato de CREATED_AT não reconhecido: %q", createdAt)
}
