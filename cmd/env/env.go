package env

// Prefix is the environment variable prefix for command flags,
// ex. BOCFX_LISTEN, BOCFX_CONFIG
const Prefix = "BOCFX"
