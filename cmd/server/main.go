package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/alertas"
	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/catalogo"
	"github.com/KromaEnergia/api-contratos/internal/cifrado"
	"github.com/KromaEnergia/api-contratos/internal/clausula"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/contrato"
	"github.com/KromaEnergia/api-contratos/internal/email"
	"github.com/KromaEnergia/api-contratos/internal/empresa"
	"github.com/KromaEnergia/api-contratos/internal/exportes"
	"github.com/KromaEnergia/api-contratos/internal/indexacion"
	"github.com/KromaEnergia/api-contratos/internal/licencia"
	"github.com/KromaEnergia/api-contratos/internal/notificacion"
	"github.com/KromaEnergia/api-contratos/internal/otrosi"
	"github.com/KromaEnergia/api-contratos/internal/poliza"
	"github.com/KromaEnergia/api-contratos/internal/renovacion"
	"github.com/KromaEnergia/api-contratos/internal/seguimiento"
	"github.com/KromaEnergia/api-contratos/internal/usuario"
	dbpkg "github.com/KromaEnergia/api-contratos/internal/utils/db"
	"github.com/KromaEnergia/api-contratos/internal/ventas"
)

func main() {
	logger := config.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("error cargando configuración")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := dbpkg.GetDB(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("error conectando la base de datos")
	}
	if err := auth.Configurar(cfg); err != nil {
		logger.WithError(err).Fatal("error cargando claves JWT")
	}
	cif, err := cifrado.DesdeConfig(cfg)
	if err != nil {
		logger.WithError(err).Fatal("error configurando cifrado")
	}

	r := router(db, cfg, cif)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{licencia.HeaderBloqueada, licencia.HeaderEstado, licencia.HeaderMensaje, "Content-Disposition"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.WithField("addr", cfg.HTTPAddr).Info("servidor iniciado")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("error en el servidor")
	}
}

func router(db *gorm.DB, cfg *config.Config, cif *cifrado.Cifrador) *mux.Router {
	mgr := licencia.NewManager(db, licencia.NuevoCliente(cfg))
	emailServicio := email.NewServicio(db, cif)
	envio := alertas.NewEnvio(db, emailServicio, notificacion.NuevoWebhook(cfg.AlertasWebhookURL))

	// Handlers
	usuarioHandler := usuario.NewHandler(db, mgr)
	licenciaHandler := licencia.NewHandler(mgr)
	contratoHandler := contrato.NewHandler(db)
	otrosiHandler := otrosi.NewHandler(db)
	renovacionHandler := renovacion.NewHandler(db)
	polizaHandler := poliza.NewHandler(db)
	indexacionHandler := indexacion.NewHandler(db)
	alertasHandler := alertas.NewHandler(envio)
	emailHandler := email.NewHandler(emailServicio)
	empresaHandler := empresa.NewHandler(db)
	exportesHandler := exportes.NewHandler(db, envio.Generador)
	ventasHandler := ventas.NewHandler(db)
	clausulaHandler := clausula.NewHandler(db)
	seguimientoHandler := seguimiento.NewHandler(db)
	terceros := catalogo.NewTerceros(db)
	locales := catalogo.NewLocales(db)
	tiposContrato := catalogo.NewTiposContrato(db)
	tiposServicio := catalogo.NewTiposServicio(db)

	admin := func(f http.HandlerFunc) http.Handler { return auth.RequireAdmin(f) }

	r := mux.NewRouter()

	// Rutas públicas
	r.HandleFunc("/auth/login", usuarioHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", auth.RefreshHTTPHandler(db)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", auth.LogoutHTTPHandler(db)).Methods(http.MethodPost)
	r.HandleFunc("/.well-known/jwks.json", auth.JWKSHandler).Methods(http.MethodGet)

	p := r.NewRoute().Subrouter()
	p.Use(auth.MiddlewareAutenticacion, mgr.Middleware)

	// Licencia
	p.HandleFunc("/licencia", licenciaHandler.Estado).Methods(http.MethodGet)
	p.Handle("/licencia", admin(licenciaHandler.Registrar)).Methods(http.MethodPut)
	p.HandleFunc("/licencia/verificar", licenciaHandler.Verificar).Methods(http.MethodPost)

	// Usuarios
	p.HandleFunc("/usuarios/me", usuarioHandler.Me).Methods(http.MethodGet)
	p.HandleFunc("/usuarios/me/password", usuarioHandler.CambiarPassword).Methods(http.MethodPut)
	p.Handle("/usuarios", admin(usuarioHandler.Crear)).Methods(http.MethodPost)
	p.Handle("/usuarios", admin(usuarioHandler.Listar)).Methods(http.MethodGet)
	p.HandleFunc("/usuarios/{id}", usuarioHandler.Actualizar).Methods(http.MethodPut)
	p.Handle("/usuarios/{id}", admin(usuarioHandler.Eliminar)).Methods(http.MethodDelete)

	// Dashboard
	p.HandleFunc("/dashboard", alertasHandler.Resumen).Methods(http.MethodGet)

	// Contratos
	p.HandleFunc("/contratos", contratoHandler.Listar).Methods(http.MethodGet)
	p.HandleFunc("/contratos", contratoHandler.Crear).Methods(http.MethodPost)
	p.HandleFunc("/contratos/{id}", contratoHandler.Obtener).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}", contratoHandler.Actualizar).Methods(http.MethodPut)
	p.HandleFunc("/contratos/{id}", contratoHandler.Eliminar).Methods(http.MethodDelete)
	p.HandleFunc("/contratos/{id}/vista-vigente", contratoHandler.VistaVigente).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}/polizas-requeridas", contratoHandler.PolizasRequeridas).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}/facturacion-ventas", contratoHandler.FacturacionVentas).Methods(http.MethodGet)

	// Otrosí
	p.HandleFunc("/contratos/{id}/otrosi", otrosiHandler.Listar).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}/otrosi", otrosiHandler.Crear).Methods(http.MethodPost)
	p.HandleFunc("/contratos/{id}/solapamientos", otrosiHandler.Solapamientos).Methods(http.MethodGet)
	p.HandleFunc("/otrosi/{id}", otrosiHandler.Obtener).Methods(http.MethodGet)
	p.HandleFunc("/otrosi/{id}", otrosiHandler.Actualizar).Methods(http.MethodPut)
	p.HandleFunc("/otrosi/{id}", otrosiHandler.Eliminar).Methods(http.MethodDelete)
	p.HandleFunc("/otrosi/{id}/estado", otrosiHandler.CambiarEstado).Methods(http.MethodPost)

	// Renovaciones
	p.HandleFunc("/contratos/{id}/renovaciones", renovacionHandler.ListarPorContrato).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}/renovaciones", renovacionHandler.Procesar).Methods(http.MethodPost)
	p.HandleFunc("/renovaciones", renovacionHandler.Listar).Methods(http.MethodGet)
	p.HandleFunc("/renovaciones/{id}", renovacionHandler.Obtener).Methods(http.MethodGet)
	p.HandleFunc("/renovaciones/{id}", renovacionHandler.Actualizar).Methods(http.MethodPut)
	p.HandleFunc("/renovaciones/{id}", renovacionHandler.Eliminar).Methods(http.MethodDelete)
	p.HandleFunc("/renovaciones/{id}/estado", renovacionHandler.CambiarEstado).Methods(http.MethodPost)

	// Pólizas
	p.HandleFunc("/contratos/{id}/polizas", polizaHandler.Listar).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}/polizas", polizaHandler.Crear).Methods(http.MethodPost)
	p.HandleFunc("/polizas/{id}", polizaHandler.Obtener).Methods(http.MethodGet)
	p.HandleFunc("/polizas/{id}", polizaHandler.Actualizar).Methods(http.MethodPut)
	p.HandleFunc("/polizas/{id}", polizaHandler.Eliminar).Methods(http.MethodDelete)

	// Indexación
	p.HandleFunc("/ipc-historico", indexacionHandler.ListarIPC).Methods(http.MethodGet)
	p.HandleFunc("/ipc-historico", indexacionHandler.CrearIPC).Methods(http.MethodPost)
	p.HandleFunc("/ipc-historico/{id}", indexacionHandler.ActualizarIPC).Methods(http.MethodPut)
	p.HandleFunc("/ipc-historico/{id}", indexacionHandler.EliminarIPC).Methods(http.MethodDelete)
	p.HandleFunc("/salario-minimo-historico", indexacionHandler.ListarSalarioMinimo).Methods(http.MethodGet)
	p.HandleFunc("/salario-minimo-historico", indexacionHandler.CrearSalarioMinimo).Methods(http.MethodPost)
	p.HandleFunc("/salario-minimo-historico/{id}", indexacionHandler.ActualizarSalarioMinimo).Methods(http.MethodPut)
	p.HandleFunc("/salario-minimo-historico/{id}", indexacionHandler.EliminarSalarioMinimo).Methods(http.MethodDelete)
	p.HandleFunc("/contratos/{id}/calculos", indexacionHandler.ListarPorContrato).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}/calculos-ipc", indexacionHandler.CalcularIPC).Methods(http.MethodPost)
	p.HandleFunc("/contratos/{id}/calculos-salario-minimo", indexacionHandler.CalcularSalarioMinimo).Methods(http.MethodPost)
	p.HandleFunc("/contratos/{id}/proxima-fecha-aumento", indexacionHandler.ProximaFecha).Methods(http.MethodGet)
	p.HandleFunc("/calculos-ipc/{id}/aplicar", indexacionHandler.AplicarHandler(indexacion.TipoIPC)).Methods(http.MethodPost)
	p.HandleFunc("/calculos-ipc/{id}/anular", indexacionHandler.AnularHandler(indexacion.TipoIPC)).Methods(http.MethodPost)
	p.HandleFunc("/calculos-salario-minimo/{id}/aplicar", indexacionHandler.AplicarHandler(indexacion.TipoSalarioMinimo)).Methods(http.MethodPost)
	p.HandleFunc("/calculos-salario-minimo/{id}/anular", indexacionHandler.AnularHandler(indexacion.TipoSalarioMinimo)).Methods(http.MethodPost)
	p.HandleFunc("/indexacion/pendientes", indexacionHandler.Pendientes).Methods(http.MethodGet)

	// Alertas
	p.HandleFunc("/alertas", alertasHandler.Resumen).Methods(http.MethodGet)
	p.HandleFunc("/alertas/enviar", alertasHandler.Enviar).Methods(http.MethodPost)
	p.HandleFunc("/alertas/{tipo}", alertasHandler.PorTipo).Methods(http.MethodGet)
	p.HandleFunc("/configuracion-alertas", alertasHandler.ListarConfiguraciones).Methods(http.MethodGet)
	p.Handle("/configuracion-alertas", admin(alertasHandler.GuardarConfiguracion)).Methods(http.MethodPut)
	p.Handle("/configuracion-alertas/default", admin(alertasHandler.ConfigurarDefault)).Methods(http.MethodPost)
	p.HandleFunc("/configuracion-alertas/{id}", alertasHandler.ObtenerConfiguracion).Methods(http.MethodGet)
	p.Handle("/configuracion-alertas/{id}", admin(alertasHandler.EliminarConfiguracion)).Methods(http.MethodDelete)
	p.Handle("/configuracion-alertas/{id}/destinatarios", admin(alertasHandler.AgregarDestinatario)).Methods(http.MethodPost)
	p.Handle("/destinatarios-alerta/{id}", admin(alertasHandler.ActualizarDestinatario)).Methods(http.MethodPut)
	p.Handle("/destinatarios-alerta/{id}", admin(alertasHandler.EliminarDestinatario)).Methods(http.MethodDelete)
	p.HandleFunc("/historial-envios", alertasHandler.Historial).Methods(http.MethodGet)

	// Email
	p.Handle("/configuracion-email", admin(emailHandler.Listar)).Methods(http.MethodGet)
	p.Handle("/configuracion-email", admin(emailHandler.Crear)).Methods(http.MethodPost)
	p.Handle("/configuracion-email/{id}", admin(emailHandler.Actualizar)).Methods(http.MethodPut)
	p.Handle("/configuracion-email/{id}", admin(emailHandler.Eliminar)).Methods(http.MethodDelete)
	p.Handle("/configuracion-email/{id}/probar", admin(emailHandler.Probar)).Methods(http.MethodPost)

	// Empresa
	p.HandleFunc("/empresas", empresaHandler.Listar).Methods(http.MethodGet)
	p.HandleFunc("/empresas/activa", empresaHandler.ObtenerActiva).Methods(http.MethodGet)
	p.Handle("/empresas", admin(empresaHandler.Crear)).Methods(http.MethodPost)
	p.Handle("/empresas/{id}", admin(empresaHandler.Actualizar)).Methods(http.MethodPut)
	p.Handle("/empresas/{id}", admin(empresaHandler.Eliminar)).Methods(http.MethodDelete)

	// Exportes
	p.HandleFunc("/exportes/contratos", exportesHandler.Contratos).Methods(http.MethodGet)
	p.HandleFunc("/exportes/alertas", exportesHandler.Alertas).Methods(http.MethodGet)
	p.HandleFunc("/exportes/informes-ventas", exportesHandler.InformesVentas).Methods(http.MethodGet)

	// Catálogos
	p.HandleFunc("/terceros", terceros.Listar).Methods(http.MethodGet)
	p.HandleFunc("/terceros", terceros.Crear).Methods(http.MethodPost)
	p.HandleFunc("/terceros/{id}", terceros.Obtener).Methods(http.MethodGet)
	p.HandleFunc("/terceros/{id}", terceros.Actualizar).Methods(http.MethodPut)
	p.Handle("/terceros/{id}", admin(terceros.Eliminar)).Methods(http.MethodDelete)
	p.HandleFunc("/locales", locales.Listar).Methods(http.MethodGet)
	p.HandleFunc("/locales", locales.Crear).Methods(http.MethodPost)
	p.HandleFunc("/locales/{id}", locales.Obtener).Methods(http.MethodGet)
	p.HandleFunc("/locales/{id}", locales.Actualizar).Methods(http.MethodPut)
	p.Handle("/locales/{id}", admin(locales.Eliminar)).Methods(http.MethodDelete)
	p.HandleFunc("/tipos-contrato", tiposContrato.Listar).Methods(http.MethodGet)
	p.Handle("/tipos-contrato", admin(tiposContrato.Crear)).Methods(http.MethodPost)
	p.HandleFunc("/tipos-contrato/{id}", tiposContrato.Obtener).Methods(http.MethodGet)
	p.Handle("/tipos-contrato/{id}", admin(tiposContrato.Actualizar)).Methods(http.MethodPut)
	p.Handle("/tipos-contrato/{id}", admin(tiposContrato.Eliminar)).Methods(http.MethodDelete)
	p.HandleFunc("/tipos-servicio", tiposServicio.Listar).Methods(http.MethodGet)
	p.Handle("/tipos-servicio", admin(tiposServicio.Crear)).Methods(http.MethodPost)
	p.HandleFunc("/tipos-servicio/{id}", tiposServicio.Obtener).Methods(http.MethodGet)
	p.Handle("/tipos-servicio/{id}", admin(tiposServicio.Actualizar)).Methods(http.MethodPut)
	p.Handle("/tipos-servicio/{id}", admin(tiposServicio.Eliminar)).Methods(http.MethodDelete)

	// Informes de ventas y facturación variable
	p.HandleFunc("/informes-ventas", ventasHandler.ListarInformes).Methods(http.MethodGet)
	p.HandleFunc("/informes-ventas", ventasHandler.CrearInforme).Methods(http.MethodPost)
	p.HandleFunc("/informes-ventas/por-reportar", ventasHandler.PorReportar).Methods(http.MethodGet)
	p.HandleFunc("/informes-ventas/{id}", ventasHandler.ObtenerInforme).Methods(http.MethodGet)
	p.HandleFunc("/informes-ventas/{id}", ventasHandler.ActualizarInforme).Methods(http.MethodPut)
	p.HandleFunc("/informes-ventas/{id}", ventasHandler.EliminarInforme).Methods(http.MethodDelete)
	p.HandleFunc("/informes-ventas/{id}/entregado", ventasHandler.MarcarEntregado).Methods(http.MethodPost)
	p.HandleFunc("/informes-ventas/{id}/pendiente", ventasHandler.MarcarPendiente).Methods(http.MethodPost)
	p.HandleFunc("/calculos-facturacion", ventasHandler.ListarCalculos).Methods(http.MethodGet)
	p.HandleFunc("/calculos-facturacion", ventasHandler.Calcular).Methods(http.MethodPost)
	p.HandleFunc("/calculos-facturacion/{id}", ventasHandler.ObtenerCalculo).Methods(http.MethodGet)

	// Cláusulas
	p.HandleFunc("/clausulas", clausulaHandler.Listar).Methods(http.MethodGet)
	p.Handle("/clausulas", admin(clausulaHandler.Crear)).Methods(http.MethodPost)
	p.HandleFunc("/clausulas/obligatorias", clausulaHandler.ListarObligatorias).Methods(http.MethodGet)
	p.Handle("/clausulas/obligatorias", admin(clausulaHandler.Parametrizar)).Methods(http.MethodPut)
	p.Handle("/clausulas/{id}", admin(clausulaHandler.Actualizar)).Methods(http.MethodPut)
	p.Handle("/clausulas/{id}", admin(clausulaHandler.Eliminar)).Methods(http.MethodDelete)
	p.HandleFunc("/contratos/{id}/clausulas", clausulaHandler.Auditoria).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}/clausulas", clausulaHandler.GuardarDeContrato).Methods(http.MethodPut)

	// Seguimientos
	p.HandleFunc("/contratos/{id}/seguimientos", seguimientoHandler.ListarDeContrato).Methods(http.MethodGet)
	p.HandleFunc("/contratos/{id}/seguimientos", seguimientoHandler.RegistrarDeContrato).Methods(http.MethodPost)
	p.Handle("/seguimientos-contrato/{id}", admin(seguimientoHandler.EditarDeContrato)).Methods(http.MethodPut)
	p.Handle("/seguimientos-contrato/{id}", admin(seguimientoHandler.EliminarDeContrato)).Methods(http.MethodDelete)
	p.HandleFunc("/seguimientos-poliza", seguimientoHandler.ListarDePoliza).Methods(http.MethodGet)
	p.HandleFunc("/seguimientos-poliza", seguimientoHandler.RegistrarDePoliza).Methods(http.MethodPost)
	p.Handle("/seguimientos-poliza/{id}", admin(seguimientoHandler.EditarDePoliza)).Methods(http.MethodPut)
	p.Handle("/seguimientos-poliza/{id}", admin(seguimientoHandler.EliminarDePoliza)).Methods(http.MethodDelete)

	return r
}
