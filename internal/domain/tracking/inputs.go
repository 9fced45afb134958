package tracking

import (
	"time"

	"lotledger/internal/core/id"
	"lotledger/internal/core/types"
	"lotledger/internal/domain/batch"
)

// GRNLine carries one received line of a Goods Receipt Note into the
// tracking core. The GRN document itself lives in the purchase subsystem.
type GRNLine struct {
	GRNID            id.ID          `json:"grnId"`
	GRNNumber        string         `json:"grnNumber"`
	ItemID           id.ID          `json:"itemId"`
	QuantityReceived types.Quantity `json:"quantityReceived"`
	RatePerUnit      types.Money    `json:"ratePerUnit"`
	ReceivedDate     time.Time      `json:"receivedDate"`
	SupplierID       *id.ID         `json:"supplierId,omitempty"`
	StorageLocation  string         `json:"storageLocation,omitempty"`
}

// JobWorkRef identifies the job-work document an issue or return belongs to.
type JobWorkRef struct {
	ID       id.ID  `json:"id"`
	Number   string `json:"number"`
	VendorID *id.ID `json:"vendorId,omitempty"`
}

// IssueSelection is one batch/quantity/process pick of a job-work issue.
type IssueSelection struct {
	BatchID  id.ID          `json:"batchId"`
	Quantity types.Quantity `json:"quantity"`
	Process  batch.Process  `json:"process"`
}

// IssueResult reports what a successful issue did. Warnings are advisory
// (pending inspection, expiring soon, FIFO) and never block the operation.
type IssueResult struct {
	Issued   types.Quantity `json:"issued"`
	Count    int            `json:"count"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ReturnLine is one line of a job-work return: finished output, scrap, and
// unused material coming back against an input batch.
type ReturnLine struct {
	InputBatchID id.ID          `json:"inputBatchId"`
	OutputItemID *id.ID         `json:"outputItemId,omitempty"`
	FinishedQty  types.Quantity `json:"finishedQty"`
	ScrapQty     types.Quantity `json:"scrapQty"`
	UnusedQty    types.Quantity `json:"unusedQty"`
	Process      batch.Process  `json:"process"`
}

// defaultProcess is assumed when a caller omits the process name.
const defaultProcess batch.Process = "cutting"

// defaultLocation is assumed for receipts without a storage location.
const defaultLocation = "MAIN-STORE"
