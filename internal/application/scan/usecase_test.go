package scan_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appscan "github.com/bipagem/opme-api/internal/application/scan"
	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes em memória
// ──────────────────────────────────────────────────────────────────────────────

type fakeItemRepo struct {
	// chaveado por código de barras normalizado
	items map[string]*entity.OpmeItem
}

func (f *fakeItemRepo) GetByBarcode(_ context.Context, _ string, normalizedBarcode string) (*entity.OpmeItem, error) {
	return f.items[normalizedBarcode], nil
}

func (f *fakeItemRepo) ListByUser(_ context.Context, _ string) ([]*entity.OpmeItem, error) {
	out := make([]*entity.OpmeItem, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

type fakeCpsRepo struct {
	recs map[int64]*entity.CpsRecord
}

func (f *fakeCpsRepo) Get(_ context.Context, cpsID int64, _ string) (*entity.CpsRecord, error) {
	return f.recs[cpsID], nil
}
func (f *fakeCpsRepo) Upsert(_ context.Context, rec *entity.CpsRecord) error {
	f.recs[rec.CpsID] = rec
	return nil
}
func (f *fakeCpsRepo) BulkUpsert(_ context.Context, recs []*entity.CpsRecord) (int, error) {
	for _, r := range recs {
		f.recs[r.CpsID] = r
	}
	return len(recs), nil
}
func (f *fakeCpsRepo) ListByUser(_ context.Context, _ string, _, _ int) ([]*entity.CpsRecord, error) {
	return nil, nil
}

type fakeRuleRepo struct {
	rules []entity.ScanRule
}

func (f *fakeRuleRepo) Create(_ context.Context, rule *entity.ScanRule) error {
	f.rules = append(f.rules, *rule)
	return nil
}
func (f *fakeRuleRepo) Delete(_ context.Context, _ string) error { return nil }
func (f *fakeRuleRepo) ListByConvenio(_ context.Context, _ string) ([]entity.ScanRule, error) {
	return f.rules, nil
}
func (f *fakeRuleRepo) List(_ context.Context) ([]entity.ScanRule, error) { return f.rules, nil }

// fakeLinkRepo reproduz a semântica do UPSERT atômico do store: o mutex faz o
// papel da serialização no banco.
type fakeLinkRepo struct {
	mu    sync.Mutex
	seq   int
	links map[string]*entity.ScanLinkage // chave cps|barcode|user
	byID  map[string]*entity.ScanLinkage
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{
		links: make(map[string]*entity.ScanLinkage),
		byID:  make(map[string]*entity.ScanLinkage),
	}
}

func (f *fakeLinkRepo) UpsertIncrement(_ context.Context, cpsID int64, normalizedBarcode, userID string) (*entity.ScanLinkage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d|%s|%s", cpsID, normalizedBarcode, userID)
	if l, ok := f.links[key]; ok {
		l.Quantity++
		cp := *l
		return &cp, nil
	}
	f.seq++
	l := &entity.ScanLinkage{
		ID:          fmt.Sprintf("link-%d", f.seq),
		UserID:      userID,
		CpsID:       cpsID,
		OpmeBarcode: normalizedBarcode,
		Quantity:    1,
		LinkedAt:    time.Now(),
	}
	f.links[key] = l
	f.byID[l.ID] = l
	cp := *l
	return &cp, nil
}

func (f *fakeLinkRepo) GetByID(_ context.Context, id string) (*entity.ScanLinkage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLinkRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	delete(f.links, fmt.Sprintf("%d|%s|%s", l.CpsID, l.OpmeBarcode, l.UserID))
	return nil
}

func (f *fakeLinkRepo) ListByCase(_ context.Context, cpsID int64, userID string) ([]*entity.ScanLinkage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.ScanLinkage
	for _, l := range f.byID {
		if l.CpsID == cpsID && l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) DailySummary(_ context.Context, _ string, _, _ time.Time) ([]repository.DailySummaryRow, error) {
	return nil, nil
}

// fakeNotifier registra os envios e opcionalmente falha; done sinaliza cada
// Send concluído para o teste poder esperar a goroutine.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []appscan.Notification
	err  error
	done chan struct{}
}

func (f *fakeNotifier) Send(_ context.Context, n appscan.Notification) error {
	f.mu.Lock()
	f.sent = append(f.sent, n)
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	return f.err
}

// ──────────────────────────────────────────────────────────────────────────────
// Cenário base
// ──────────────────────────────────────────────────────────────────────────────

const (
	scanUserID = "op-1"
	scanCpsID  = int64(4711)
)

func newScanFixture() (*appscan.RecordScanUseCase, *fakeItemRepo, *fakeRuleRepo, *fakeLinkRepo, *fakeNotifier) {
	itemRepo := &fakeItemRepo{items: map[string]*entity.OpmeItem{
		"789": {ID: "item-1", UserID: scanUserID, Opme: "Clipe Hemostático", Lote: "L42", CodigoBarras: "00789"},
		"555": {ID: "item-2", UserID: scanUserID, Opme: "Clipe Genérico", CodigoBarras: "555"},
	}}
	cpsRepo := &fakeCpsRepo{recs: map[int64]*entity.CpsRecord{
		scanCpsID: {ID: "cps-1", UserID: scanUserID, CpsID: scanCpsID, Patient: "Maria Souza", Agreement: "ACME Saúde", OpenedAt: time.Now()},
	}}
	ruleRepo := &fakeRuleRepo{}
	linkRepo := newFakeLinkRepo()
	notifier := &fakeNotifier{done: make(chan struct{}, 8)}
	uc := appscan.NewRecordScanUseCase(itemRepo, cpsRepo, ruleRepo, linkRepo, notifier, nil, nil)
	return uc, itemRepo, ruleRepo, linkRepo, notifier
}

func waitNotify(t *testing.T, n *fakeNotifier) {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notificação não foi disparada")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Fluxo liberado + agregação
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordScan_PrimeiraBipagemGravaQuantidadeUm(t *testing.T) {
	uc, _, _, _, notifier := newScanFixture()

	resp, err := uc.RecordScan(context.Background(), scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "0789"})
	require.NoError(t, err)
	assert.Equal(t, "allowed", resp.Verdict)
	assert.Equal(t, 1, resp.Quantity)
	require.NotNil(t, resp.LinkedAt)
	require.NotNil(t, resp.Item)
	assert.Equal(t, "Clipe Hemostático", resp.Item.Opme)

	waitNotify(t, notifier)
	assert.Equal(t, "Maria Souza", notifier.sent[0].Patient)
	assert.Equal(t, "789", notifier.sent[0].OpmeBarcode, "notificação usa o código normalizado")
}

// Bipagens repetidas do mesmo item agregam quantidade e preservam o LinkedAt
// da primeira bipagem.
func TestRecordScan_RepetidaIncrementaQuantidade(t *testing.T) {
	uc, _, _, _, _ := newScanFixture()
	ctx := context.Background()

	first, err := uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	require.NoError(t, err)

	// "0789" e "789" são o mesmo item após normalização.
	_, err = uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "0789"})
	require.NoError(t, err)

	third, err := uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	require.NoError(t, err)

	assert.Equal(t, 3, third.Quantity)
	assert.Equal(t, *first.LinkedAt, *third.LinkedAt, "LinkedAt é o da primeira bipagem")
}

// Duas bipagens concorrentes do mesmo item terminam com quantity 2: o
// incremento é um único comando atômico no store, sem lost update.
func TestRecordScan_ConcorrenciaSemLostUpdate(t *testing.T) {
	uc, _, _, linkRepo, _ := newScanFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	link, err := linkRepo.GetByID(context.Background(), "link-1")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, 2, link.Quantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vereditos de regra
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordScan_BloqueadoNadaGravado(t *testing.T) {
	uc, _, ruleRepo, linkRepo, _ := newScanFixture()
	ruleRepo.rules = []entity.ScanRule{{
		OpmeBarcode: "789", ConvenioName: "ACME Saúde",
		RuleType: entity.RuleBlock, Message: "item vetado em contrato",
	}}

	resp, err := uc.RecordScan(context.Background(), scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	assert.Nil(t, resp)

	var blocked *domain.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "item vetado em contrato", blocked.Message)
	assert.Empty(t, linkRepo.byID, "bloqueio não grava vínculo")
}

func TestRecordScan_AlertaDeFaturamentoGravaComAlerta(t *testing.T) {
	uc, _, ruleRepo, _, _ := newScanFixture()
	ruleRepo.rules = []entity.ScanRule{{
		OpmeBarcode: "789", ConvenioName: "ACME Saúde",
		RuleType: entity.RuleBillingAlert, Message: "faturar pelo código TUSS",
	}}

	resp, err := uc.RecordScan(context.Background(), scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	require.NoError(t, err)
	assert.Equal(t, "allowed_with_alert", resp.Verdict)
	assert.Equal(t, "faturar pelo código TUSS", resp.Alert)
	assert.Equal(t, 1, resp.Quantity)
}

// Sugestão de substituição: devolve original + substituto sem gravar nada; o
// reenvio confirmado grava sem reavaliar as regras.
func TestRecordScan_SugestaoDeSubstituicaoEConfirmacao(t *testing.T) {
	uc, _, ruleRepo, linkRepo, _ := newScanFixture()
	ruleRepo.rules = []entity.ScanRule{{
		OpmeBarcode: "789", ConvenioName: "ACME Saúde",
		RuleType: entity.RuleSuggestReplacement, Message: "prefira o genérico",
		ReplacementOpmeBarcode: "555",
	}}
	ctx := context.Background()

	resp, err := uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	require.NoError(t, err)
	assert.Equal(t, "diverted", resp.Verdict)
	require.NotNil(t, resp.Replacement)
	assert.Equal(t, "Clipe Genérico", resp.Replacement.Opme)
	assert.Empty(t, linkRepo.byID, "diverted não grava vínculo")

	// Usuário insiste no original: confirm pula a reavaliação e grava.
	resp, err = uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789", Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, "allowed", resp.Verdict)
	assert.Equal(t, 1, resp.Quantity)
}

// Substituto sugerido fora do catálogo: a sugestão é ignorada e as demais
// regras voltam a valer.
func TestRecordScan_SubstitutoInexistenteCaiNasDemaisRegras(t *testing.T) {
	uc, _, ruleRepo, _, _ := newScanFixture()
	ruleRepo.rules = []entity.ScanRule{
		{
			OpmeBarcode: "789", ConvenioName: "ACME Saúde",
			RuleType: entity.RuleSuggestReplacement, Message: "prefira o genérico",
			ReplacementOpmeBarcode: "999", // não existe no catálogo
		},
		{
			OpmeBarcode: "789", ConvenioName: "ACME Saúde",
			RuleType: entity.RuleBillingAlert, Message: "conferir tabela",
		},
	}

	resp, err := uc.RecordScan(context.Background(), scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	require.NoError(t, err)
	assert.Equal(t, "allowed_with_alert", resp.Verdict)
	assert.Equal(t, "conferir tabela", resp.Alert)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pré-condições
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordScan_ItemForaDoCatalogo(t *testing.T) {
	uc, _, _, _, _ := newScanFixture()

	_, err := uc.RecordScan(context.Background(), scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "999"})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestRecordScan_CpsForaDoCacheLocal(t *testing.T) {
	uc, _, _, _, _ := newScanFixture()

	_, err := uc.RecordScan(context.Background(), scanUserID, appscan.ScanInput{CpsID: 9999, Barcode: "789"})
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Isolamento da notificação
// ──────────────────────────────────────────────────────────────────────────────

// Falha no envio da notificação não afeta o resultado da bipagem.
func TestRecordScan_FalhaDeNotificacaoNaoPropaga(t *testing.T) {
	uc, _, _, _, notifier := newScanFixture()
	notifier.err = errors.New("gateway indisponível")

	resp, err := uc.RecordScan(context.Background(), scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Quantity)

	waitNotify(t, notifier)
}

// ──────────────────────────────────────────────────────────────────────────────
// Remoção de vínculo
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteLinkage(t *testing.T) {
	uc, _, _, linkRepo, _ := newScanFixture()
	ctx := context.Background()

	_, err := uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	require.NoError(t, err)

	operator := entity.SessionUser{ID: scanUserID, Role: entity.RoleOperator}
	otherOp := entity.SessionUser{ID: "op-2", Role: entity.RoleOperator}
	manager := entity.SessionUser{ID: "mgr-1", Role: entity.RoleManager}

	// Outro operador não remove.
	assert.ErrorIs(t, uc.DeleteLinkage(ctx, otherOp, "link-1"), domain.ErrForbidden)

	// O próprio operador remove dentro da janela.
	require.NoError(t, uc.DeleteLinkage(ctx, operator, "link-1"))
	assert.Empty(t, linkRepo.byID)

	// Vínculo inexistente.
	assert.ErrorIs(t, uc.DeleteLinkage(ctx, manager, "link-1"), domain.ErrNotFound)
}

// Fora da janela de uma hora o próprio operador perde o direito; o gestor não.
func TestDeleteLinkage_ForaDaJanela(t *testing.T) {
	uc, _, _, linkRepo, _ := newScanFixture()
	ctx := context.Background()

	_, err := uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "789"})
	require.NoError(t, err)

	// Recuar o LinkedAt para simular a passagem do tempo.
	linkRepo.mu.Lock()
	linkRepo.byID["link-1"].LinkedAt = time.Now().Add(-61 * time.Minute)
	linkRepo.mu.Unlock()

	operator := entity.SessionUser{ID: scanUserID, Role: entity.RoleOperator}
	assert.ErrorIs(t, uc.DeleteLinkage(ctx, operator, "link-1"), domain.ErrForbidden)

	manager := entity.SessionUser{ID: "mgr-1", Role: entity.RoleManager}
	assert.NoError(t, uc.DeleteLinkage(ctx, manager, "link-1"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Histórico enriquecido
// ──────────────────────────────────────────────────────────────────────────────

func TestHistory_EnriqueceComCatalogo(t *testing.T) {
	uc, _, _, _, _ := newScanFixture()
	ctx := context.Background()

	_, err := uc.RecordScan(ctx, scanUserID, appscan.ScanInput{CpsID: scanCpsID, Barcode: "0789"})
	require.NoError(t, err)

	history, err := uc.History(ctx, scanUserID, scanCpsID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "789", history[0].OpmeBarcode)
	require.NotNil(t, history[0].Item, "o vínculo deve vir com os metadados do catálogo")
	assert.Equal(t, "Clipe Hemostático", history[0].Item.Opme)
}
