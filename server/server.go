package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/nusely/CFLSMS/server/auth"
	"github.com/nusely/CFLSMS/server/auth/key"
	"github.com/nusely/CFLSMS/server/logger"
	"github.com/nusely/CFLSMS/server/models"
	"github.com/nusely/CFLSMS/server/sms"
	"github.com/nusely/CFLSMS/server/sweeper"
	"github.com/nusely/CFLSMS/shared"
)

type RequestContextKey string

type DecodedJWT struct {
	Claims   *auth.CflsmsTokenClaims
	ErrorMsg string
}

var (
	logg = logger.NewLogger()

	validate    *validator.Validate
	authKeyPair *key.KeyPair
	smsGateway  sms.Gateway
)

func init() {
	validate = validator.New()
	if err := RegisterValidators(validate); err != nil {
		logg.Fatal(err)
	}
}

// Start wires the store, sms gateway, sweep & http listener together and
// blocks until the process is signalled to stop.
func Start(config *shared.ServerConfig) {
	var err error

	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem(config.Cflsms.PrivateKeyPem)
	fatalOnError(err)

	fatalOnError(models.Initialize(config.Database))

	smsGateway, err = newGateway(config.Sms)
	fatalOnError(err)

	sweep, err := sweeper.New(smsGateway, config.Cflsms.Cron)
	fatalOnError(err)
	sweep.Start()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", config.Cflsms.Listener.Port),
		Handler: newRouter(),
	}
	go serve(server)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	cleanup(sweep, server)
}

func newRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, initialContextMiddleware)

	router.HandleFunc("/login", logIn).Methods("POST")
	router.HandleFunc("/.well-known/jwks.json", jwks).Methods("GET")

	superadminOnly := router.PathPrefix("/users").Subrouter()
	superadminOnly.Use(superadminRouteMiddleware)

	superadminOnly.HandleFunc("", createProfile).Methods("POST")
	superadminOnly.HandleFunc("", fetchProfiles).Methods("GET")
	superadminOnly.HandleFunc("/{id}", updateProfileRole).Methods("PUT")
	superadminOnly.HandleFunc("/{id}", deleteProfile).Methods("DELETE")

	protected := router.PathPrefix("/").Subrouter()
	protected.Use(protectedRouteMiddleware)

	protected.HandleFunc("/contacts", fetchContacts).Methods("GET")
	protected.HandleFunc("/contacts", createContact).Methods("POST")
	protected.HandleFunc("/contacts/import/preview", previewImport).Methods("POST")
	protected.HandleFunc("/contacts/import", runImport).Methods("POST")
	protected.HandleFunc("/contacts/{id}", updateContact).Methods("PUT")
	protected.HandleFunc("/contacts/{id}", deleteContact).Methods("DELETE")

	protected.HandleFunc("/groups", fetchGroups).Methods("GET")
	protected.HandleFunc("/groups", createGroup).Methods("POST")
	protected.HandleFunc("/groups/{id}", updateGroup).Methods("PUT")
	protected.HandleFunc("/groups/{id}", deleteGroup).Methods("DELETE")
	protected.HandleFunc("/groups/{id}/members", fetchGroupMembers).Methods("GET")
	protected.HandleFunc("/groups/{id}/members", addGroupMembers).Methods("POST")
	protected.HandleFunc("/groups/{id}/phones", fetchGroupPhones).Methods("GET")

	protected.HandleFunc("/sms/dispatch", dispatchSms).Methods("POST")
	protected.HandleFunc("/sms/history", fetchSmsHistory).Methods("GET")
	protected.HandleFunc("/sms/history/refresh", refreshDeliveryStatus).Methods("POST")

	protected.HandleFunc("/scheduled", fetchScheduledSms).Methods("GET")
	protected.HandleFunc("/scheduled/{id}", deleteScheduledSms).Methods("DELETE")

	return router
}

func newGateway(config shared.SmsConfig) (sms.Gateway, error) {
	switch config.Provider {
	case "fish":
		return sms.NewFishGateway(config.Fish), nil
	case "twilio":
		return sms.NewTwilioGateway(config.Twilio), nil
	}

	return nil, fmt.Errorf("unsupported sms provider: %v", config.Provider)
}

func serve(server *http.Server) {
	logg.Infof("CFLSMS server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(sweep *sweeper.Sweeper, server *http.Server) {
	sweep.Stop()

	// Shutdown server gracefully
	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("CFLSMS server shutdown failed:%+s", err)
	}

	logg.Infof("CFLSMS server stopped properly")
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
