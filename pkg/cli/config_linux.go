package cli

const defaultBackend = BackendBlueZ
