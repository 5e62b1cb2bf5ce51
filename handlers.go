package main

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

const internalServerError = "Internal Server Error"

// Handlers serves the voucher API on top of a VoucherIssuer.
type Handlers struct {
	issuer VoucherIssuer
	config *Config
	logger *zap.Logger
}

func NewHandlers(issuer VoucherIssuer, config *Config, logger *zap.Logger) *Handlers {
	return &Handlers{issuer: issuer, config: config, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

// PingHandler responds with the status of the server itself.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PingResponse{Status: "ok"})
}

func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (h *Handlers) Voucher721Handler(w http.ResponseWriter, r *http.Request) {
	h.issueVoucher(w, r, Standard721)
}

func (h *Handlers) Voucher1155Handler(w http.ResponseWriter, r *http.Request) {
	h.issueVoucher(w, r, Standard1155)
}

func (h *Handlers) issueVoucher(w http.ResponseWriter, r *http.Request, standard TokenStandard) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	voucher, contentIdentifier, err := h.issuer.Issue(r.Context(), standard, r.URL.Query().Get("receiver"))
	if err != nil {
		status := StatusForError(err)
		h.logger.Error("failed to issue voucher",
			zap.Stringer("standard", standard),
			zap.Int("status", status),
			zap.Error(err),
		)
		http.Error(w, internalServerError, status)
		return
	}

	if standard == Standard1155 {
		writeJSON(w, http.StatusOK, VoucherResponse{SignedVoucher: voucher, URI: contentIdentifier})
		return
	}
	writeJSON(w, http.StatusOK, voucher)
}

func (h *Handlers) AddressHandler(w http.ResponseWriter, r *http.Request) {
	signer := h.issuer.Signer()
	if signer == nil {
		h.logger.Error("no voucher signer wired")
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return
	}
	address, err := signer.Address()
	if err != nil {
		h.logger.Error("no signer address", zap.Error(err))
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, AddressResponse{Address: address.Hex()})
}

func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	status := StatusResponse{
		Version:         VoucherServiceVersion,
		StorageBackend:  h.config.Storage.Backend,
		RequireReceiver: h.config.Voucher.RequireReceiver,
		Bindings:        []BindingStatus{},
	}
	signer := h.issuer.Signer()
	if signer == nil {
		writeJSON(w, http.StatusOK, status)
		return
	}
	if address, err := signer.Address(); err == nil {
		status.Signer = address.Hex()
	}

	for _, standard := range []TokenStandard{Standard721, Standard1155} {
		binding, ok := signer.Binding(standard)
		if !ok {
			continue
		}
		status.Bindings = append(status.Bindings, BindingStatus{
			Standard:      standard.String(),
			Address:       binding.Address.Hex(),
			ChainID:       binding.ChainID,
			DomainName:    binding.DomainName,
			DomainVersion: binding.DomainVersion,
			TokenIDScheme: string(h.config.Voucher.Schemes[standard]),
		})
	}

	writeJSON(w, http.StatusOK, status)
}

// ValidateHandler checks a signed voucher against the domain of the contract bound for its
// standard.
func (h *Handlers) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var voucher SignedVoucher
	bodyDecoder := json.NewDecoder(r.Body)
	if decodeErr := bodyDecoder.Decode(&voucher); decodeErr != nil {
		http.Error(w, "Error decoding request", http.StatusBadRequest)
		return
	}

	binding, ok := h.binding(w, voucher.Standard)
	if !ok {
		return
	}

	recovered, err := RecoverVoucherSigner(&voucher, binding)
	if err != nil {
		h.logger.Info("voucher signature could not be recovered", zap.Error(err))
		writeJSON(w, http.StatusOK, ValidateResponse{Valid: false})
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:     recovered == voucher.Signer,
		Recovered: recovered.Hex(),
	})
}

// binding looks up the contract binding for standard, answering the request itself when there
// is none.
func (h *Handlers) binding(w http.ResponseWriter, standard TokenStandard) (ContractBinding, bool) {
	signer := h.issuer.Signer()
	if signer == nil {
		h.logger.Error("no voucher signer wired")
		http.Error(w, internalServerError, http.StatusInternalServerError)
		return ContractBinding{}, false
	}
	binding, ok := signer.Binding(standard)
	if !ok {
		http.Error(w, "Unsupported token standard", http.StatusBadRequest)
		return ContractBinding{}, false
	}
	return binding, true
}

// VoucherHashHandler returns the EIP-712 digest a voucher payload would be signed over, for
// clients that sign or verify vouchers themselves.
func (h *Handlers) VoucherHashHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload VoucherPayload
	bodyDecoder := json.NewDecoder(r.Body)
	if decodeErr := bodyDecoder.Decode(&payload); decodeErr != nil {
		http.Error(w, "Error decoding request", http.StatusBadRequest)
		return
	}

	binding, ok := h.binding(w, payload.Standard)
	if !ok {
		return
	}

	messageHash, err := VoucherHash(&payload, binding)
	if err != nil {
		h.logger.Info("unable to hash voucher", zap.Error(err))
		http.Error(w, "Unable to hash voucher", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, VoucherHashResponse{VoucherHash: hexutil.Encode(messageHash)})
}
