package service

import (
	"github.com/Coritp27/sysga-sub002/internal/reconcile"
	"github.com/Coritp27/sysga-sub002/internal/verification/models"
	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

// buildView shapes the card disclosure for the actor's role. Verifiers prove
// control of a delivery channel, so they learn that the card is real and what
// state it is in; policy references and anchoring details stay with the
// issuer.
func buildView(role requestcontext.ActorRole, verdict *reconcile.Verdict) *models.CardView {
	record := verdict.Record
	if record == nil {
		return nil
	}

	view := &models.CardView{
		CardNumber: record.Number.String(),
		Status:     string(record.Status),
		IssuedOn:   record.IssuedOn,
	}
	if role != requestcontext.RoleIssuer {
		return view
	}

	view.InsuredPersonRef = record.InsuredPersonRef
	view.PolicyRef = record.PolicyRef
	lastModified := record.LastModified
	view.LastModified = &lastModified
	if verdict.Reference != nil {
		view.BlockchainTxHash = verdict.Reference.BlockchainTxHash
		onChainID := verdict.Reference.OnChainID
		view.OnChainID = &onChainID
	}
	return view
}

// warningsFor surfaces verdicts that deserve the caller's attention without
// blocking disclosure.
func warningsFor(verdict *reconcile.Verdict) []string {
	switch verdict.Kind {
	case reconcile.VerdictDrift:
		return []string{"card state drifted from its on-chain anchor"}
	case reconcile.VerdictUnanchored:
		return []string{"card is not yet anchored on-chain"}
	}
	return nil
}
