package scan

import (
	"context"
	"time"

	"github.com/bipagem/opme-api/internal/application/dto"
	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/barcode"
	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/repository"
	"github.com/bipagem/opme-api/internal/domain/rules"
	"github.com/bipagem/opme-api/internal/metrics"
	"github.com/bipagem/opme-api/pkg/logger"
)

// RecordScanUseCase executa uma bipagem: resolve o item no catálogo, avalia
// as regras do convênio do CPS e, liberada, grava o vínculo com incremento
// atômico de quantidade. A notificação é disparada fora do caminho crítico.
type RecordScanUseCase struct {
	itemRepo repository.OpmeItemRepository
	cpsRepo  repository.CpsRecordRepository
	ruleRepo repository.ScanRuleRepository
	linkRepo repository.ScanLinkageRepository
	notifier Notifier
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewRecordScanUseCase constrói o caso de uso. notifier e m podem ser nil.
func NewRecordScanUseCase(
	itemRepo repository.OpmeItemRepository,
	cpsRepo repository.CpsRecordRepository,
	ruleRepo repository.ScanRuleRepository,
	linkRepo repository.ScanLinkageRepository,
	notifier Notifier,
	log *logger.Logger,
	m *metrics.Metrics,
) *RecordScanUseCase {
	return &RecordScanUseCase{
		itemRepo: itemRepo,
		cpsRepo:  cpsRepo,
		ruleRepo: ruleRepo,
		linkRepo: linkRepo,
		notifier: notifier,
		log:      log,
		metrics:  m,
	}
}

// ScanInput entrada de uma bipagem.
type ScanInput struct {
	CpsID   int64
	Barcode string
	// Confirm indica um reenvio após veredito "diverted": o usuário já
	// escolheu entre original e substituto, e a avaliação não é reexecutada
	// para o código confirmado.
	Confirm bool
}

// RecordScan processa uma bipagem para o CPS selecionado.
// Vereditos: liberado e liberado-com-alerta gravam o vínculo; diverted
// devolve a sugestão sem gravar; bloqueio retorna *domain.BlockedError e nada
// é gravado. O CPS precisa estar no cache local (selecionado antes via
// resolução/sincronização).
func (uc *RecordScanUseCase) RecordScan(ctx context.Context, userID string, in ScanInput) (*dto.ScanResponse, error) {
	if userID == "" || in.CpsID <= 0 || in.Barcode == "" {
		return nil, domain.ErrInvalidInput
	}
	start := time.Now()

	code := barcode.Normalize(in.Barcode)

	item, err := uc.itemRepo.GetByBarcode(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}

	cps, err := uc.cpsRepo.Get(ctx, in.CpsID, userID)
	if err != nil {
		return nil, err
	}
	if cps == nil {
		return nil, domain.ErrCaseNotFound
	}

	alert := ""
	verdictLabel := rules.Allowed.String()

	if !in.Confirm {
		ruleSet, err := uc.ruleRepo.ListByConvenio(ctx, cps.Agreement)
		if err != nil {
			return nil, err
		}

		verdict := rules.Evaluate(code, cps.Agreement, ruleSet)
		if verdict.Decision == rules.Diverted {
			replacement, err := uc.itemRepo.GetByBarcode(ctx, userID, barcode.Normalize(verdict.ReplacementBarcode))
			if err != nil {
				return nil, err
			}
			if replacement != nil {
				uc.metrics.IncScanOutcome(rules.Diverted.String())
				return &dto.ScanResponse{
					Verdict:     rules.Diverted.String(),
					Message:     verdict.Message,
					Item:        itemDTO(item),
					Replacement: itemDTO(replacement),
				}, nil
			}
			// Substituto fora do catálogo: a sugestão é ignorada e as demais
			// regras voltam a valer.
			verdict = rules.Evaluate(code, cps.Agreement, rules.WithoutSuggestions(ruleSet))
		}

		switch verdict.Decision {
		case rules.Blocked:
			uc.metrics.IncScanOutcome(rules.Blocked.String())
			return nil, &domain.BlockedError{Message: verdict.Message}
		case rules.AllowedWithAlert:
			alert = verdict.Message
			verdictLabel = rules.AllowedWithAlert.String()
		}
	}

	link, err := uc.linkRepo.UpsertIncrement(ctx, in.CpsID, code, userID)
	if err != nil {
		return nil, err
	}

	uc.metrics.IncScanOutcome(verdictLabel)
	uc.metrics.ObserveScanDuration(time.Since(start))

	uc.dispatchNotification(item, cps, link)

	linkedAt := link.LinkedAt
	return &dto.ScanResponse{
		Verdict:  verdictLabel,
		Quantity: link.Quantity,
		LinkedAt: &linkedAt,
		Alert:    alert,
		Item:     itemDTO(item),
	}, nil
}

// dispatchNotification envia a notificação em goroutine própria, desacoplada
// do contexto da requisição: o cancelamento da sessão não cancela um envio em
// andamento e falhas viram apenas log + métrica.
func (uc *RecordScanUseCase) dispatchNotification(item *entity.OpmeItem, cps *entity.CpsRecord, link *entity.ScanLinkage) {
	if uc.notifier == nil {
		return
	}
	n := Notification{
		OpmeName:     item.Opme,
		OpmeBarcode:  link.OpmeBarcode,
		Patient:      cps.Patient,
		CpsID:        cps.CpsID,
		ConvenioName: cps.Agreement,
		Quantity:     link.Quantity,
		Timestamp:    time.Now().Format(time.RFC3339),
		Lote:         item.Lote,
		Validade:     item.Validade,
		Referencia:   item.Referencia,
		Anvisa:       item.Anvisa,
		Tuss:         item.Tuss,
		CodSimpro:    item.CodSimpro,
	}
	go func() {
		if err := uc.notifier.Send(context.Background(), n); err != nil {
			uc.metrics.IncNotifyFailure()
			if uc.log != nil {
				uc.log.Warn().Err(err).
					Int64("cps_id", n.CpsID).
					Str("opme_barcode", n.OpmeBarcode).
					Msg("falha ao enviar notificação de bipagem")
			}
		}
	}()
}

func itemDTO(item *entity.OpmeItem) *dto.OpmeItemDTO {
	if item == nil {
		return nil
	}
	return &dto.OpmeItemDTO{
		ID:           item.ID,
		Opme:         item.Opme,
		Lote:         item.Lote,
		Validade:     item.Validade,
		Referencia:   item.Referencia,
		Anvisa:       item.Anvisa,
		Tuss:         item.Tuss,
		CodSimpro:    item.CodSimpro,
		CodigoBarras: item.CodigoBarras,
	}
}
