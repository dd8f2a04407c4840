package ledger_service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/clients"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

// PayoutOrchestrator groups pending worker earnings into payout batches and drives each
// batch line from creation to an explicitly confirmed outcome.
type PayoutOrchestrator struct {
	store     repository.Store
	transfers clients.TransferInitiator
	workers   int
	notifier  Notifier
}

// NewPayoutOrchestrator builds the orchestrator. transfers may be nil, in which case
// lines are paid out of band and confirmed by an operator.
func NewPayoutOrchestrator(store repository.Store, transfers clients.TransferInitiator, workers int, notifier Notifier) *PayoutOrchestrator {
	if workers <= 0 {
		workers = 8
	}
	return &PayoutOrchestrator{store: store, transfers: transfers, workers: workers, notifier: orNop(notifier)}
}

// AggregateEarnings sums earnings per provider, ordered by provider id.
func AggregateEarnings(earnings []*ledger_models.WorkerEarning) []*ledger_models.ProviderEarnings {
	byProvider := map[uuid.UUID]*ledger_models.ProviderEarnings{}
	for _, e := range earnings {
		p, ok := byProvider[e.WorkerID]
		if !ok {
			p = &ledger_models.ProviderEarnings{
				ProviderID:  e.WorkerID,
				Amount:      decimal.Zero,
				PeriodStart: e.EarnedAt,
				PeriodEnd:   e.EarnedAt,
			}
			byProvider[e.WorkerID] = p
		}
		p.Amount = p.Amount.Add(e.Amount)
		p.Count++
		p.EarningIDs = append(p.EarningIDs, e.ID)
		if e.EarnedAt.Before(p.PeriodStart) {
			p.PeriodStart = e.EarnedAt
		}
		if e.EarnedAt.After(p.PeriodEnd) {
			p.PeriodEnd = e.EarnedAt
		}
	}

	out := make([]*ledger_models.ProviderEarnings, 0, len(byProvider))
	for _, p := range byProvider {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderID.String() < out[j].ProviderID.String() })
	return out
}

// CreateBatch claims pending earnings (all providers when none are named) into a new batch.
// Each line is reserved by debiting its amount from the provider wallet, so earnings are only
// claimed oldest first up to the balance not already promised to pending withdrawals.
func (o *PayoutOrchestrator) CreateBatch(ctx context.Context, in ledger_models.CreateBatchInput) (*ledger_models.PayoutBatch, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	batchID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate batch id: %w", err)
	}

	var batch *ledger_models.PayoutBatch
	err = o.store.WithTx(ctx, func(tx repository.Tx) error {
		providers, err := tx.PendingEarners(ctx, in.ProviderIDs)
		if err != nil {
			return err
		}

		// Wallets are locked before earnings, the order settlement and withdrawal use too.
		wallets := map[uuid.UUID]*ledger_models.Wallet{}
		available := map[uuid.UUID]decimal.Decimal{}
		var payable []uuid.UUID
		for _, p := range providers {
			w, err := tx.LockWallet(ctx, ledger_models.OwnerWorker, p)
			if err != nil {
				return err
			}
			if !w.IsActive {
				logger.WarnLogger.Warnf("Provider %s skipped from payout batch: wallet inactive", p)
				continue
			}
			reserved, err := tx.PendingWithdrawalTotal(ctx, p)
			if err != nil {
				return err
			}
			wallets[p] = w
			available[p] = w.CurrentBalance.Sub(reserved)
			payable = append(payable, p)
		}
		if len(payable) == 0 {
			return ledger_models.ErrNothingToPay
		}

		earnings, err := tx.LockPendingEarnings(ctx, payable)
		if err != nil {
			return err
		}
		byProvider := map[uuid.UUID][]*ledger_models.WorkerEarning{}
		for _, e := range earnings {
			byProvider[e.WorkerID] = append(byProvider[e.WorkerID], e)
		}
		var claimed []*ledger_models.WorkerEarning
		for _, p := range payable {
			taken, _ := takeEarnings(byProvider[p], available[p])
			if left := len(byProvider[p]) - len(taken); left > 0 {
				logger.WarnLogger.Warnf("Provider %s: %d pending earnings exceed the available balance %s",
					p, left, available[p].StringFixed(2))
			}
			claimed = append(claimed, taken...)
		}
		groups := AggregateEarnings(claimed)
		if len(groups) == 0 {
			return ledger_models.ErrNothingToPay
		}

		now := time.Now().UTC()
		total := decimal.Zero
		for _, g := range groups {
			total = total.Add(g.Amount)
		}
		batch = &ledger_models.PayoutBatch{
			ID:             batchID,
			BatchReference: ledger_models.NewBatchReference(now, batchID),
			TotalAmount:    total,
			TotalProviders: len(groups),
			Status:         ledger_models.BatchCreated,
			CreatedBy:      in.AdminID,
			Notes:          in.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.InsertBatch(ctx, batch); err != nil {
			return err
		}

		for _, g := range groups {
			detailID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate detail id: %w", err)
			}
			d := &ledger_models.PayoutDetail{
				ID:            detailID,
				BatchID:       batch.ID,
				ProviderID:    g.ProviderID,
				Amount:        g.Amount,
				EarningsCount: g.Count,
				PeriodStart:   g.PeriodStart,
				PeriodEnd:     g.PeriodEnd,
				Status:        ledger_models.DetailCreated,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			acct, err := tx.PrimaryDestination(ctx, g.ProviderID)
			if err != nil {
				return err
			}
			if acct != nil && acct.IsVerified {
				d.BankAccountID = &acct.ID
			}
			if err := tx.InsertDetail(ctx, d); err != nil {
				return err
			}
			if err := tx.LinkEarnings(ctx, g.EarningIDs, batch.ID, d.ID); err != nil {
				return err
			}
			ref := d.ID.String()
			if _, err := post(ctx, tx, wallets[g.ProviderID], posting{
				Type:        ledger_models.TxDebit,
				Category:    ledger_models.CategoryPayout,
				Amount:      d.Amount,
				Description: "Payout batch " + batch.BatchReference,
				ReferenceID: &ref,
			}); err != nil {
				return err
			}
			batch.Details = append(batch.Details, d)
		}
		return audit(ctx, tx, in.AdminID, "payout_batch_created", "payout_batch", batch.ID, nil, &batch.TotalAmount, in.Notes)
	})
	if err != nil {
		if !errors.Is(err, ledger_models.ErrNothingToPay) {
			logger.ErrorLogger.Errorf("create payout batch failed: %v", err)
		}
		return nil, err
	}
	logger.InfoLogger.Infof("Payout batch %s created: providers=%d total=%s",
		batch.BatchReference, batch.TotalProviders, batch.TotalAmount.StringFixed(2))
	return batch, nil
}

type transferJob struct {
	detailID uuid.UUID
	req      clients.TransferRequest
}

func transferRequestFor(batch *ledger_models.PayoutBatch, d *ledger_models.PayoutDetail, acct *ledger_models.BankAccount) clients.TransferRequest {
	return clients.TransferRequest{
		TransferID:    d.ID.String(),
		ProviderID:    d.ProviderID,
		Amount:        d.Amount,
		Name:          acct.AccountHolderName,
		AccountNumber: deref(acct.AccountNumber),
		IFSC:          deref(acct.IFSC),
		UPIID:         deref(acct.UPIID),
		Remarks:       batch.BatchReference,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Process moves a created batch and its lines to processing. When a transfer initiator is
// configured every line with a destination is submitted to it after commit.
func (o *PayoutOrchestrator) Process(ctx context.Context, batchID, adminID uuid.UUID) (*ledger_models.PayoutBatch, error) {
	var (
		batch *ledger_models.PayoutBatch
		jobs  []transferJob
	)
	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		batch, err = tx.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != ledger_models.BatchCreated {
			return fmt.Errorf("%w: batch %s is %s", ledger_models.ErrInvalidState, batch.BatchReference, batch.Status)
		}
		details, err := tx.ListDetails(ctx, batch.ID)
		if err != nil {
			return err
		}
		for _, d := range details {
			d.Status = ledger_models.DetailProcessing
			if err := tx.UpdateDetail(ctx, d); err != nil {
				return err
			}
			if d.BankAccountID == nil || o.transfers == nil {
				continue
			}
			acct, err := tx.GetBankAccount(ctx, d.ProviderID, *d.BankAccountID)
			if err != nil {
				return err
			}
			jobs = append(jobs, transferJob{detailID: d.ID, req: transferRequestFor(batch, d, acct)})
		}
		now := time.Now().UTC()
		batch.Status = ledger_models.BatchProcessing
		batch.ProcessedAt = &now
		if err := tx.UpdateBatch(ctx, batch); err != nil {
			return err
		}
		batch.Details = details
		return audit(ctx, tx, adminID, "payout_batch_processing", "payout_batch", batch.ID, nil, &batch.TotalAmount, "")
	})
	if err != nil {
		logger.WarnLogger.Warnf("process payout batch %s failed: %v", batchID, err)
		return nil, err
	}
	logger.InfoLogger.Infof("Payout batch %s processing with %d lines", batch.BatchReference, len(batch.Details))

	if len(jobs) > 0 {
		o.initiate(ctx, jobs)
		if _, err := o.finalise(ctx, batch.ID); err != nil {
			return nil, err
		}
		return o.GetBatch(ctx, batch.ID)
	}
	return batch, nil
}

// initiate hands each job to the transfer initiator on a bounded pool and waits for all of them.
// A rejected transfer fails only its own line.
func (o *PayoutOrchestrator) initiate(ctx context.Context, jobs []transferJob) {
	size := o.workers
	if len(jobs) < size {
		size = len(jobs)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		logger.ErrorLogger.Errorf("failed to create transfer pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			o.initiateOne(ctx, job)
		})
		if err != nil {
			wg.Done()
			logger.ErrorLogger.Errorf("failed to submit transfer for detail %s: %v", job.detailID, err)
		}
	}
	wg.Wait()
}

func (o *PayoutOrchestrator) initiateOne(ctx context.Context, job transferJob) {
	ref, err := o.transfers.InitiateTransfer(ctx, job.req)
	if err != nil {
		logger.WarnLogger.Warnf("transfer for detail %s rejected: %v", job.detailID, err)
		if _, serr := o.settleDetail(ctx, job.detailID, false, "", "transfer initiation failed: "+err.Error()); serr != nil {
			logger.ErrorLogger.Errorf("failed to mark detail %s failed: %v", job.detailID, serr)
		}
		return
	}
	err = o.store.WithTx(ctx, func(tx repository.Tx) error {
		d, err := tx.LockDetail(ctx, job.detailID)
		if err != nil {
			return err
		}
		if d.Status != ledger_models.DetailProcessing {
			return nil
		}
		d.TransferReference = &ref
		return tx.UpdateDetail(ctx, d)
	})
	if err != nil {
		logger.ErrorLogger.Errorf("failed to record transfer reference for detail %s: %v", job.detailID, err)
		return
	}
	logger.InfoLogger.Infof("Transfer initiated for detail %s, reference %s", job.detailID, ref)
}

// settleDetail records the outcome of one processing line in its own transaction.
// The line's amount was reserved from the provider wallet when the batch was created: a paid
// line marks its earnings paid, a failed line returns the reservation to the wallet.
// Lines already paid or failed are returned unchanged.
func (o *PayoutOrchestrator) settleDetail(ctx context.Context, detailID uuid.UUID, success bool, reference, reason string) (*ledger_models.PayoutDetail, error) {
	var d *ledger_models.PayoutDetail
	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		d, err = tx.LockDetail(ctx, detailID)
		if err != nil {
			return err
		}
		switch d.Status {
		case ledger_models.DetailPaid, ledger_models.DetailFailed:
			return nil
		case ledger_models.DetailCreated:
			return fmt.Errorf("%w: payout detail %s has not been processed", ledger_models.ErrInvalidState, d.ID)
		}

		now := time.Now().UTC()
		if success {
			if _, err := tx.MarkEarningsPaid(ctx, d.ID, now); err != nil {
				return err
			}
			d.Status = ledger_models.DetailPaid
			d.PaidAt = &now
			d.FailureReason = nil
			if reference != "" {
				d.TransferReference = &reference
			}
			return tx.UpdateDetail(ctx, d)
		}

		w, err := tx.LockWallet(ctx, ledger_models.OwnerWorker, d.ProviderID)
		if err != nil {
			return err
		}
		if reason == "" {
			reason = "transfer failed"
		}
		ref := d.ID.String()
		if _, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxCredit,
			Category:    ledger_models.CategoryPayoutReversal,
			Amount:      d.Amount,
			Description: "Payout reversal: " + reason,
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		d.Status = ledger_models.DetailFailed
		d.FailureReason = &reason
		return tx.UpdateDetail(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	logger.InfoLogger.Infof("Payout detail %s settled as %s", d.ID, d.Status)
	return d, nil
}

// finalise sets the batch outcome once no line is left processing.
func (o *PayoutOrchestrator) finalise(ctx context.Context, batchID uuid.UUID) (*ledger_models.PayoutBatch, error) {
	var (
		batch     *ledger_models.PayoutBatch
		finalised bool
	)
	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		batch, err = tx.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		details, err := tx.ListDetails(ctx, batch.ID)
		if err != nil {
			return err
		}
		batch.Details = details
		if batch.Status != ledger_models.BatchProcessing {
			return nil
		}
		status, done := ledger_models.ResolveBatchStatus(details)
		if !done {
			return nil
		}
		now := time.Now().UTC()
		batch.Status = status
		batch.CompletedAt = &now
		finalised = true
		return tx.UpdateBatch(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	if finalised {
		logger.InfoLogger.Infof("Payout batch %s finalised as %s", batch.BatchReference, batch.Status)
		if err := o.notifier.BatchFinalised(ctx, batch); err != nil {
			logger.WarnLogger.Warnf("batch %s notification failed: %v", batch.BatchReference, err)
		}
	}
	return batch, nil
}

// ConfirmCompletion records the external outcome of a processing batch. Lines not listed in
// Failures are treated as paid. Calling it again on a finalised batch returns the batch unchanged.
func (o *PayoutOrchestrator) ConfirmCompletion(ctx context.Context, batchID uuid.UUID, in ledger_models.ConfirmInput) (*ledger_models.PayoutBatch, error) {
	var (
		batch   *ledger_models.PayoutBatch
		pending []*ledger_models.PayoutDetail
	)
	failures := map[uuid.UUID]string{}
	for _, f := range in.Failures {
		failures[f.DetailID] = f.Reason
	}

	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		batch, err = tx.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		details, err := tx.ListDetails(ctx, batch.ID)
		if err != nil {
			return err
		}
		batch.Details = details
		if batch.Status == ledger_models.BatchCreated {
			return fmt.Errorf("%w: batch %s has not been processed", ledger_models.ErrInvalidState, batch.BatchReference)
		}
		if batch.Status.IsFinal() {
			return nil
		}

		inBatch := map[uuid.UUID]bool{}
		for _, d := range details {
			inBatch[d.ID] = true
		}
		for id := range failures {
			if !inBatch[id] {
				return fmt.Errorf("%w: detail %s is not part of batch %s", ledger_models.ErrInvalidInput, id, batch.BatchReference)
			}
		}
		for _, d := range details {
			if d.Status != ledger_models.DetailProcessing {
				continue
			}
			if _, failed := failures[d.ID]; !failed && d.BankAccountID == nil {
				return fmt.Errorf("%w: provider %s", ledger_models.ErrMissingDestination, d.ProviderID)
			}
			pending = append(pending, d)
		}
		return nil
	})
	if err != nil {
		logger.WarnLogger.Warnf("confirm payout batch %s refused: %v", batchID, err)
		return nil, err
	}
	if batch.Status.IsFinal() {
		return batch, nil
	}

	for _, d := range pending {
		reason, failed := failures[d.ID]
		if _, err := o.settleDetail(ctx, d.ID, !failed, in.References[d.ID], reason); err != nil {
			logger.ErrorLogger.Errorf("settle payout detail %s failed: %v", d.ID, err)
			return nil, err
		}
	}
	return o.finalise(ctx, batchID)
}

// ConfirmDetail records the outcome of a single line, as reported by the payout webhook.
func (o *PayoutOrchestrator) ConfirmDetail(ctx context.Context, detailID uuid.UUID, success bool, reference, reason string) (*ledger_models.PayoutDetail, error) {
	d, err := o.settleDetail(ctx, detailID, success, reference, reason)
	if err != nil {
		return nil, err
	}
	if _, err := o.finalise(ctx, d.BatchID); err != nil {
		return nil, err
	}
	return d, nil
}

// RedriveDetail puts a failed line back into processing. Its earnings never left the line, so
// only the wallet reservation is taken again; the batch reopens and is finalised once the line
// is confirmed. A wallet that no longer covers the line refuses the re-drive.
func (o *PayoutOrchestrator) RedriveDetail(ctx context.Context, detailID, adminID uuid.UUID) (*ledger_models.PayoutDetail, error) {
	var (
		d   *ledger_models.PayoutDetail
		job *transferJob
	)
	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		d, err = tx.LockDetail(ctx, detailID)
		if err != nil {
			return err
		}
		if d.Status != ledger_models.DetailFailed {
			return fmt.Errorf("%w: payout detail %s is %s", ledger_models.ErrInvalidState, d.ID, d.Status)
		}
		batch, err := tx.LockBatch(ctx, d.BatchID)
		if err != nil {
			return err
		}
		earnings, err := tx.ListEarningsByDetail(ctx, d.ID)
		if err != nil {
			return err
		}
		linked := 0
		for _, e := range earnings {
			if e.PayoutStatus == ledger_models.EarningBatched {
				linked++
			}
		}
		if linked == 0 {
			return fmt.Errorf("%w: payout detail %s has no earnings left to pay", ledger_models.ErrInvalidState, d.ID)
		}

		if d.BankAccountID == nil {
			acct, err := tx.PrimaryDestination(ctx, d.ProviderID)
			if err != nil {
				return err
			}
			if acct != nil && acct.IsVerified {
				d.BankAccountID = &acct.ID
			}
		}
		w, err := tx.LockWallet(ctx, ledger_models.OwnerWorker, d.ProviderID)
		if err != nil {
			return err
		}
		ref := d.ID.String()
		if _, err := post(ctx, tx, w, posting{
			Type:        ledger_models.TxDebit,
			Category:    ledger_models.CategoryPayout,
			Amount:      d.Amount,
			Description: "Payout batch " + batch.BatchReference + " re-drive",
			ReferenceID: &ref,
		}); err != nil {
			return err
		}

		d.Status = ledger_models.DetailProcessing
		d.FailureReason = nil
		if err := tx.UpdateDetail(ctx, d); err != nil {
			return err
		}

		if batch.Status.IsFinal() {
			batch.Status = ledger_models.BatchProcessing
			batch.CompletedAt = nil
			if err := tx.UpdateBatch(ctx, batch); err != nil {
				return err
			}
		}
		if o.transfers != nil && d.BankAccountID != nil {
			acct, err := tx.GetBankAccount(ctx, d.ProviderID, *d.BankAccountID)
			if err != nil {
				return err
			}
			job = &transferJob{detailID: d.ID, req: transferRequestFor(batch, d, acct)}
		}
		return audit(ctx, tx, adminID, "payout_detail_redriven", "payout_detail", d.ID, &d.ProviderID, &d.Amount, "")
	})
	if err != nil {
		return nil, err
	}
	logger.InfoLogger.Infof("Payout detail %s re-driven by %s", d.ID, adminID)

	if job != nil {
		o.initiateOne(ctx, *job)
		if _, err := o.finalise(ctx, d.BatchID); err != nil {
			return nil, err
		}
	}
	return d, nil
}

var exportHeader = []string{
	"provider_id", "name", "email", "amount", "earnings_count", "status",
	"account_holder", "account_number", "ifsc", "bank_name", "upi_id",
}

// ExportCSV writes one row per batch line with the provider's contact and bank details.
func (o *PayoutOrchestrator) ExportCSV(ctx context.Context, batchID uuid.UUID, w io.Writer) error {
	var rows []*ledger_models.BatchExportRow
	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetBatch(ctx, batchID); err != nil {
			return err
		}
		var err error
		rows, err = tx.BatchExportRows(ctx, batchID)
		return err
	})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.ProviderID.String(), r.Name, r.Email, r.Amount.StringFixed(2), strconv.Itoa(r.EarningsCount),
			string(r.Status), r.AccountHolderName, r.AccountNumber, r.IFSC, r.BankName, r.UPIID,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (o *PayoutOrchestrator) GetBatch(ctx context.Context, batchID uuid.UUID) (*ledger_models.PayoutBatch, error) {
	var batch *ledger_models.PayoutBatch
	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		batch, err = tx.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		batch.Details, err = tx.ListDetails(ctx, batch.ID)
		return err
	})
	return batch, err
}

func (o *PayoutOrchestrator) ListBatches(ctx context.Context, status ledger_models.BatchStatus, limit, offset int) ([]*ledger_models.PayoutBatch, error) {
	out := []*ledger_models.PayoutBatch{}
	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		list, err := tx.ListBatches(ctx, status, limit, offset)
		out = append(out, list...)
		return err
	})
	return out, err
}

// StuckBatches lists batches that have been processing for longer than olderThan.
// They are only reported; completion always needs an explicit confirmation.
func (o *PayoutOrchestrator) StuckBatches(ctx context.Context, olderThan time.Duration) ([]*ledger_models.PayoutBatch, error) {
	out := []*ledger_models.PayoutBatch{}
	err := o.store.WithTx(ctx, func(tx repository.Tx) error {
		list, err := tx.ListProcessingBatchesBefore(ctx, time.Now().UTC().Add(-olderThan))
		out = append(out, list...)
		return err
	})
	if len(out) > 0 {
		refs := make([]string, 0, len(out))
		for _, b := range out {
			refs = append(refs, b.BatchReference)
		}
		logger.WarnLogger.Warnf("%d payout batches processing for over %s: %s", len(out), olderThan, strings.Join(refs, ", "))
	}
	return out, err
}
