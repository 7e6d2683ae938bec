package server

import (
	"net/http"

	"github.com/matheuscscp/declarative-oauth2/internal/logging"
	"github.com/matheuscscp/declarative-oauth2/internal/provider"
	"github.com/matheuscscp/declarative-oauth2/internal/store"
)

const (
	pathAuthorizePrefix = "/authorize/"
	pathCallbackPrefix  = "/callback/"

	pathValueProvider = "provider"
)

func newAPI(providers map[string]provider.Interface, st store.Store, metrics *flowMetrics) http.Handler {
	mux := http.NewServeMux()

	lookupProvider := func(w http.ResponseWriter, r *http.Request, phase string) (provider.Interface, *http.Request, bool) {
		name := r.PathValue(pathValueProvider)
		p, ok := providers[name]
		if !ok {
			http.Error(w, "Provider not found", http.StatusNotFound)
			return nil, r, false
		}
		return p, logging.WithFlow(r, name, phase), true
	}

	mux.HandleFunc("GET "+pathAuthorizePrefix+"{provider}", func(w http.ResponseWriter, r *http.Request) {
		p, r, ok := lookupProvider(w, r, phaseConsent)
		if !ok {
			return
		}
		l := logging.FromRequest(r)

		tx := store.NewTransaction(r, p.Name(), callbackURL(r, p.Name()))

		consent, err := p.BuildConsent(r.Context(), tx.RedirectURL, tx.CodeVerifier)
		if err != nil {
			metrics.observe(p.Name(), phaseConsent, resultError)
			respondFlowError(w, r, err, "failed to build consent url")
			return
		}

		if err := st.StoreTransaction(consent.State, tx); err != nil {
			metrics.observe(p.Name(), phaseConsent, resultError)
			l.WithError(err).Error("failed to store transaction")
			http.Error(w, "Failed to store transaction", http.StatusInternalServerError)
			return
		}

		metrics.observe(p.Name(), phaseConsent, resultSuccess)
		l.Debug("redirecting to consent url")

		setStateCookie(w, p.Name(), consent.State)
		http.Redirect(w, r, consent.URL, http.StatusSeeOther)
	})

	mux.HandleFunc("GET "+pathCallbackPrefix+"{provider}", func(w http.ResponseWriter, r *http.Request) {
		p, r, ok := lookupProvider(w, r, phaseCallback)
		if !ok {
			return
		}
		l := logging.FromRequest(r)

		stateKey, err := p.StateKey()
		if err != nil {
			metrics.observe(p.Name(), phaseCallback, resultError)
			respondFlowError(w, r, err, "failed to resolve state key")
			return
		}

		state, err := consumeStateCookie(w, r, p.Name(), r.URL.Query().Get(stateKey))
		if err != nil {
			metrics.observe(p.Name(), phaseCallback, resultError)
			l.WithError(err).Error("CSRF failed")
			http.Error(w, "CSRF failed", http.StatusBadRequest)
			return
		}

		tx, ok := st.RetrieveTransaction(state)
		if !ok {
			metrics.observe(p.Name(), phaseCallback, resultError)
			http.Error(w, "Transaction expired", http.StatusBadRequest)
			return
		}

		if err := tx.Verify(r, p.Name()); err != nil {
			metrics.observe(p.Name(), phaseCallback, resultError)
			l.WithError(err).Error("transaction mismatch")
			http.Error(w, "Transaction mismatch", http.StatusBadRequest)
			return
		}

		output, err := p.CompleteFlow(r.Context(), callbackParams(r), tx.RedirectURL, tx.CodeVerifier)
		if err != nil {
			metrics.observe(p.Name(), phaseCallback, resultError)
			respondFlowError(w, r, err, "failed to complete flow")
			return
		}

		result := outputResult(output)
		metrics.observe(p.Name(), phaseCallback, result)
		l.WithField("result", result).Info("flow completed")

		respondJSON(w, r, http.StatusOK, output)
	})

	return mux
}
