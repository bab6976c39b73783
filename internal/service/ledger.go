package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/paymi/backend/internal/ledger"
	"github.com/paymi/backend/internal/models"
	"github.com/paymi/backend/internal/storage"
)

// Ledger implements contact management and the debt/payment operations.
//
// The identity user store is consulted read-only: to resolve split
// participants and sender names, and to synthesize ledger-only entries in
// personalized contact listings.
type Ledger struct {
	contacts  storage.ContactStore
	debts     storage.DebtStore
	userDebts storage.UserDebtStore
	users     storage.UserStore
	db        storage.Pinger
	logger    *slog.Logger
}

// NewLedger creates the ledger service.
func NewLedger(
	contacts storage.ContactStore,
	debts storage.DebtStore,
	userDebts storage.UserDebtStore,
	users storage.UserStore,
	db storage.Pinger,
	logger *slog.Logger,
) *Ledger {
	return &Ledger{
		contacts:  contacts,
		debts:     debts,
		userDebts: userDebts,
		users:     users,
		db:        db,
		logger:    logger,
	}
}

// Routes registers the ledger endpoints.
func (s *Ledger) Routes(r *mux.Router) {
	r.HandleFunc("/add_contact", s.handleAddContact).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/contacts", s.handleListContacts).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/contact/{email}", s.handleGetContact).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/add_debt", s.handleAddDebt).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/record_payment", s.handleRecordPayment).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/confirm_split", s.handleConfirmSplit).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/health", healthHandler(s.db)).Methods(http.MethodGet)
}

func (s *Ledger) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var contact models.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if contact.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	contact.ID = ""
	if err := s.contacts.CreateContact(r.Context(), &contact); err != nil {
		if field, ok := storage.IsConflict(err); ok {
			var msg string
			switch field {
			case "wallet_id":
				msg = fmt.Sprintf("Contact with wallet ID '%s' already exists. Wallet ID must be unique.", contact.WalletID)
			default:
				msg = fmt.Sprintf("Contact with email '%s' already exists. Email must be unique.", contact.Email)
			}
			writeError(w, http.StatusConflict, msg)
			return
		}
		s.logger.Error("AddContact failed", "email", contact.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add contact: "+err.Error())
		return
	}

	// Zero-initialized aggregate record, paired with the contact. The two
	// writes are not atomic: if this one fails the contact stands alone and
	// readers treat the missing record as all-zero.
	debt := &models.Debt{ContactEmail: contact.Email}
	if err := s.debts.CreateDebt(r.Context(), debt); err != nil {
		s.logger.Error("Debt record creation failed, contact stored without one",
			"contact_email", contact.Email, "error", err)
	}

	s.logger.Info("Contact added", "contact_id", contact.ID, "email", contact.Email)
	writeJSON(w, http.StatusOK, contact)
}

func (s *Ledger) handleGetContact(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	contact, err := s.contacts.GetContactByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Contact with email '%s' not found", email))
			return
		}
		s.logger.Error("GetContact failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get contact: "+err.Error())
		return
	}

	totals := s.aggregateTotals(r, email)

	writeJSON(w, http.StatusOK, map[string]any{
		"contact_id": contact.ID,
		"first_name": contact.FirstName,
		"last_name":  contact.LastName,
		"username":   contact.Username,
		"email":      contact.Email,
		"wallet_id":  contact.WalletID,
		"created_at": contact.CreatedAt,
		"debt_info": map[string]float64{
			"owes_me":         totals.OwesMe,
			"i_owe":           totals.IOwe,
			"paid_back_to_me": totals.PaidBackToMe,
			"paid_back_by_me": totals.PaidBackByMe,
		},
	})
}

// aggregateTotals reads a contact's aggregate record, treating a missing
// record as all-zero.
func (s *Ledger) aggregateTotals(r *http.Request, email string) ledger.Totals {
	debt, err := s.debts.GetDebtByContactEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("Debt lookup failed", "contact_email", email, "error", err)
		}
		return ledger.Totals{}
	}
	return ledger.Totals{
		OwesMe:       debt.OwesMe,
		IOwe:         debt.IOwe,
		PaidBackToMe: debt.PaidBackToMe,
		PaidBackByMe: debt.PaidBackByMe,
	}
}

// contactEntry is one row of the contact listing, annotated with balance
// information. FromLedger marks entries synthesized from the identity
// collection for counterparties that owe or are owed but have no stored
// Contact.
type contactEntry struct {
	ContactID   string          `json:"contact_id"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	WalletID    string          `json:"wallet_id"`
	DisplayName string          `json:"display_name"`
	Category    ledger.Category `json:"category"`
	TotalDebt   float64         `json:"total_debt"`
	PaidBack    float64         `json:"paid_back"`
	NetOwesMe   float64         `json:"net_owes_me"`
	NetIOwe     float64         `json:"net_i_owe"`
	FromLedger  bool            `json:"from_ledger"`
}

// pairBalance collects the viewer's individualized records against one
// counterpart, split by direction.
type pairBalance struct {
	asCreditor []ledger.Entry // counterpart owes the viewer
	asDebtor   []ledger.Entry // viewer owes the counterpart

	paidToMe float64
	paidByMe float64

	// creditorName is the split-time sender name from the newest record in
	// which the viewer is the debtor. Shown instead of the contact's own
	// name when the viewer owes.
	creditorName   string
	creditorNameAt time.Time
}

func (s *Ledger) handleListContacts(w http.ResponseWriter, r *http.Request) {
	viewer := r.URL.Query().Get("user_email")

	contacts, err := s.contacts.ListContacts(r.Context())
	if err != nil {
		s.logger.Error("ListContacts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get contacts: "+err.Error())
		return
	}

	// Without a viewer there is nobody to compute balances for: every
	// contact is neutral.
	if viewer == "" {
		entries := make([]contactEntry, 0, len(contacts))
		for _, c := range contacts {
			entries = append(entries, contactEntry{
				ContactID:   c.ID,
				FirstName:   c.FirstName,
				LastName:    c.LastName,
				Username:    c.Username,
				Email:       c.Email,
				WalletID:    c.WalletID,
				DisplayName: contactDisplayName(c),
				Category:    ledger.CategoryNeutral,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"contacts": entries})
		return
	}

	records, err := s.userDebts.ListUserDebtsByParticipant(r.Context(), viewer)
	if err != nil {
		s.logger.Error("User debt lookup failed", "viewer", viewer, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get contacts: "+err.Error())
		return
	}

	pairs := make(map[string]*pairBalance)
	balance := func(counterpart string) *pairBalance {
		pb, ok := pairs[counterpart]
		if !ok {
			pb = &pairBalance{}
			pairs[counterpart] = pb
		}
		return pb
	}

	for _, d := range records {
		entry := ledger.Entry{ID: d.ID, Amount: d.Amount, PaidBack: d.PaidBack, CreatedAt: d.CreatedAt}
		switch viewer {
		case d.CreditorEmail:
			pb := balance(d.DebtorEmail)
			pb.asCreditor = append(pb.asCreditor, entry)
			pb.paidToMe += d.PaidBack
		case d.DebtorEmail:
			pb := balance(d.CreditorEmail)
			pb.asDebtor = append(pb.asDebtor, entry)
			pb.paidByMe += d.PaidBack
			if d.CreditorName != "" && !d.CreatedAt.Before(pb.creditorNameAt) {
				pb.creditorName = d.CreditorName
				pb.creditorNameAt = d.CreatedAt
			}
		}
	}

	entries := make([]contactEntry, 0, len(contacts))
	seen := make(map[string]bool, len(contacts))

	for _, c := range contacts {
		seen[c.Email] = true
		entry := contactEntry{
			ContactID:   c.ID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			Username:    c.Username,
			Email:       c.Email,
			WalletID:    c.WalletID,
			DisplayName: contactDisplayName(c),
			Category:    ledger.CategoryNeutral,
		}
		if pb, ok := pairs[c.Email]; ok {
			applyBalance(&entry, pb)
		}
		entries = append(entries, entry)
	}

	// Counterparties with an outstanding balance but no stored Contact:
	// synthesize an entry from the identity collection, flagged FromLedger.
	for email, pb := range pairs {
		if seen[email] {
			continue
		}
		owedToMe, iOwe := ledger.NetBalance(pb.asCreditor, pb.asDebtor)
		if category, _ := ledger.CategorizeNet(owedToMe, iOwe); category == ledger.CategoryNeutral {
			continue
		}

		entry := contactEntry{
			Email:      email,
			FromLedger: true,
		}
		if user, err := s.users.GetUserByEmail(r.Context(), email); err == nil {
			entry.FirstName = user.FirstName
			entry.LastName = user.LastName
			entry.Username = user.Username
			entry.WalletID = user.WalletAddress
			entry.DisplayName = user.DisplayName()
		} else if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("Identity lookup failed for ledger entry", "email", email, "error", err)
		}
		applyBalance(&entry, pb)
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{"contacts": entries})
}

// applyBalance fills an entry's balance fields from the viewer's records
// against that counterpart.
func applyBalance(entry *contactEntry, pb *pairBalance) {
	owedToMe, iOwe := ledger.NetBalance(pb.asCreditor, pb.asDebtor)
	category, outstanding := ledger.CategorizeNet(owedToMe, iOwe)

	entry.Category = category
	entry.TotalDebt = outstanding
	entry.NetOwesMe = owedToMe
	entry.NetIOwe = iOwe

	switch category {
	case ledger.CategoryOwesMe:
		entry.PaidBack = pb.paidToMe
	case ledger.CategoryIOwe:
		entry.PaidBack = pb.paidByMe
		// The ledger shows who split the bill, not what the address book
		// calls them.
		if pb.creditorName != "" {
			entry.DisplayName = pb.creditorName
		}
	}
}

func contactDisplayName(c *models.Contact) string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.Username
	}
}

type addDebtRequest struct {
	ContactEmail string  `json:"contact_email"`
	Amount       float64 `json:"amount"`
}

func (s *Ledger) handleAddDebt(w http.ResponseWriter, r *http.Request) {
	var req addDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Debt amount must be greater than 0")
		return
	}

	if _, err := s.contacts.GetContactByEmail(r.Context(), req.ContactEmail); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Contact with email '%s' not found", req.ContactEmail))
			return
		}
		s.logger.Error("AddDebt contact lookup failed", "contact_email", req.ContactEmail, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add debt: "+err.Error())
		return
	}

	debt, err := s.debts.GetDebtByContactEmail(r.Context(), req.ContactEmail)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// Orphan contact without an aggregate record: create it now.
		debt = &models.Debt{ContactEmail: req.ContactEmail, OwesMe: req.Amount}
		err = s.debts.CreateDebt(r.Context(), debt)
	case err == nil:
		err = s.debts.UpdateDebtTotals(r.Context(), req.ContactEmail,
			debt.OwesMe+req.Amount, debt.IOwe, debt.PaidBackToMe, debt.PaidBackByMe)
	}
	if err != nil {
		s.logger.Error("AddDebt failed", "contact_email", req.ContactEmail, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add debt: "+err.Error())
		return
	}

	s.logger.Info("Debt added", "contact_email", req.ContactEmail, "amount", req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Added $%.2f to debt", req.Amount),
	})
}

type recordPaymentRequest struct {
	CreditorEmail string  `json:"creditor_email"`
	DebtorEmail   string  `json:"debtor_email"`
	Amount        float64 `json:"amount"`
}

type paymentAllocation struct {
	DebtID   string  `json:"debt_id"`
	Applied  float64 `json:"applied"`
	PaidBack float64 `json:"paid_back"`
}

func (s *Ledger) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CreditorEmail == "" || req.DebtorEmail == "" {
		writeError(w, http.StatusBadRequest, "creditor_email and debtor_email are required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Payment amount must be greater than 0")
		return
	}

	records, err := s.userDebts.ListUserDebtsByPair(r.Context(), req.CreditorEmail, req.DebtorEmail)
	if err != nil {
		s.logger.Error("RecordPayment lookup failed", "creditor", req.CreditorEmail, "debtor", req.DebtorEmail, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record payment: "+err.Error())
		return
	}

	entries := make([]ledger.Entry, len(records))
	for i, d := range records {
		entries[i] = ledger.Entry{ID: d.ID, Amount: d.Amount, PaidBack: d.PaidBack, CreatedAt: d.CreatedAt}
	}

	allocations, err := ledger.AllocatePayment(entries, req.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrPaymentExceedsDebt) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf(
				"Payment of $%.2f exceeds remaining debt of $%.2f",
				req.Amount, ledger.Outstanding(entries)))
			return
		}
		s.logger.Error("RecordPayment allocation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record payment: "+err.Error())
		return
	}

	applied := make([]paymentAllocation, 0, len(allocations))
	for _, a := range allocations {
		if err := s.userDebts.SetUserDebtPaidBack(r.Context(), a.ID, a.NewPaidBack); err != nil {
			s.logger.Error("RecordPayment update failed", "debt_id", a.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to record payment: "+err.Error())
			return
		}
		applied = append(applied, paymentAllocation{DebtID: a.ID, Applied: a.Applied, PaidBack: a.NewPaidBack})
	}

	s.logger.Info("Payment recorded",
		"creditor", req.CreditorEmail,
		"debtor", req.DebtorEmail,
		"amount", req.Amount,
		"records_touched", len(applied),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"message":        fmt.Sprintf("Recorded $%.2f payment", req.Amount),
		"allocations":    applied,
		"remaining_debt": ledger.Outstanding(entries) - req.Amount,
	})
}

type confirmSplitRequest struct {
	Participants    []string           `json:"participants"`
	AmountPerPerson float64            `json:"amount_per_person"`
	TotalAmount     float64            `json:"total_amount"`
	SenderEmail     string             `json:"sender_email"`
	SenderName      string             `json:"sender_name"`
	Items           []models.SplitItem `json:"items"`
}

// splitResult is one participant's outcome within a confirmed split.
// A split is never rejected wholesale for one bad participant: failures are
// reported per entry while the rest succeed.
type splitResult struct {
	ContactEmail string  `json:"contact_email"`
	Status       string  `json:"status"`
	Message      string  `json:"message,omitempty"`
	AmountAdded  float64 `json:"amount_added,omitempty"`
	DebtID       string  `json:"debt_id,omitempty"`
}

func (s *Ledger) handleConfirmSplit(w http.ResponseWriter, r *http.Request) {
	var req confirmSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Participants) == 0 {
		writeError(w, http.StatusBadRequest, "At least one participant is required")
		return
	}
	if req.AmountPerPerson <= 0 {
		writeError(w, http.StatusBadRequest, "Amount per person must be greater than 0")
		return
	}
	if req.SenderEmail == "" {
		writeError(w, http.StatusBadRequest, "sender_email is required")
		return
	}

	senderName := req.SenderName
	if senderName == "" {
		if sender, err := s.users.GetUserByEmail(r.Context(), req.SenderEmail); err == nil {
			senderName = sender.DisplayName()
		} else if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("Sender lookup failed", "sender", req.SenderEmail, "error", err)
		}
	}

	results := make([]splitResult, 0, len(req.Participants))
	for _, participant := range req.Participants {
		if !s.participantKnown(r, participant) {
			results = append(results, splitResult{
				ContactEmail: participant,
				Status:       "error",
				Message:      fmt.Sprintf("Participant '%s' is neither a registered user nor a contact", participant),
			})
			continue
		}

		// Every split creates fresh, independently payable debt; prior
		// records between the pair are never merged.
		debt := &models.UserDebt{
			CreditorEmail: req.SenderEmail,
			CreditorName:  senderName,
			DebtorEmail:   participant,
			Amount:        req.AmountPerPerson,
			Items:         req.Items,
		}
		if err := s.userDebts.CreateUserDebt(r.Context(), debt); err != nil {
			s.logger.Error("ConfirmSplit insert failed", "participant", participant, "error", err)
			results = append(results, splitResult{
				ContactEmail: participant,
				Status:       "error",
				Message:      err.Error(),
			})
			continue
		}

		results = append(results, splitResult{
			ContactEmail: participant,
			Status:       "success",
			AmountAdded:  req.AmountPerPerson,
			DebtID:       debt.ID,
		})
	}

	s.logger.Info("Split confirmed",
		"sender", req.SenderEmail,
		"participants", len(req.Participants),
		"amount_per_person", req.AmountPerPerson,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"message": fmt.Sprintf("Split confirmed: $%.2f per person for %d participants",
			req.AmountPerPerson, len(req.Participants)),
		"results": results,
	})
}

// participantKnown reports whether the email belongs to a registered user
// or a stored contact.
func (s *Ledger) participantKnown(r *http.Request, email string) bool {
	if _, err := s.users.GetUserByEmail(r.Context(), email); err == nil {
		return true
	}
	if _, err := s.contacts.GetContactByEmail(r.Context(), email); err == nil {
		return true
	}
	return false
}
