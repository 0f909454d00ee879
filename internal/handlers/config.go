package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// configPage builds the base64 configuration segment in the browser. The
// fields mirror the keys accepted by config.CreateFromUserData.
const configPage = `<!DOCTYPE html>
<html lang="cs">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Nastavení Přehraj.to</title>
  <style>
    :root {
      --primary-color: #d6336c;
      --background-color: #f7f9fc;
      --text-color: #333;
      --input-border: #ccc;
    }
    * { box-sizing: border-box; }
    body {
      font-family: sans-serif;
      background-color: var(--background-color);
      color: var(--text-color);
      margin: 0;
      padding: 20px;
      display: flex;
      align-items: center;
      justify-content: center;
      min-height: 100vh;
    }
    .container {
      background-color: #fff;
      border-radius: 8px;
      padding: 30px;
      max-width: 500px;
      width: 100%;
      box-shadow: 0 4px 12px rgba(0, 0, 0, 0.1);
    }
    h1 { text-align: center; color: var(--primary-color); }
    label { font-weight: 500; margin-top: 15px; display: block; }
    input {
      width: 100%;
      padding: 10px;
      border: 1px solid var(--input-border);
      border-radius: 4px;
      margin-top: 5px;
    }
    button {
      background-color: var(--primary-color);
      color: #fff;
      border: none;
      padding: 12px 20px;
      border-radius: 4px;
      margin-top: 25px;
      width: 100%;
      cursor: pointer;
    }
    .result { margin-top: 25px; word-break: break-all; }
    .hint { font-size: 0.85rem; color: #777; }
  </style>
  <script>
    function encode(obj) {
      const bytes = new TextEncoder().encode(JSON.stringify(obj));
      let bin = "";
      bytes.forEach(b => bin += String.fromCharCode(b));
      return btoa(bin).replace(/\+/g, "-").replace(/\//g, "_");
    }

    function decode(segment) {
      const bin = atob(segment.replace(/-/g, "+").replace(/_/g, "/"));
      const bytes = Uint8Array.from(bin, c => c.charCodeAt(0));
      return JSON.parse(new TextDecoder().decode(bytes));
    }

    function loadFromURL() {
      const parts = window.location.pathname.split('/').filter(p => p);
      if (parts.length >= 2 && parts[parts.length - 1] === "configure") {
        try {
          const cfg = decode(parts[parts.length - 2]);
          document.getElementById('tmdb').value = cfg.TMDB_API_KEY || "";
          document.getElementById('email').value = cfg.PREHRAJTO_EMAIL || "";
        } catch (error) {
          console.error("Neplatná konfigurace:", error);
        }
      }
    }

    function generate() {
      const cfg = {};
      const tmdb = document.getElementById('tmdb').value.trim();
      const email = document.getElementById('email').value.trim();
      const password = document.getElementById('password').value;
      if (tmdb) cfg.TMDB_API_KEY = tmdb;
      if (email && password) {
        cfg.PREHRAJTO_EMAIL = email;
        cfg.PREHRAJTO_PASSWORD = password;
      }
      const base = window.location.origin;
      const manifest = base + '/' + encode(cfg) + '/manifest.json';
      document.getElementById('result').innerHTML =
        '<p><strong>Manifest:</strong></p>' +
        '<p><a href="' + manifest + '">' + manifest + '</a></p>' +
        '<p><a href="' + manifest.replace(/^https?:/, 'stremio:') + '">Nainstalovat do Stremia</a></p>';
    }

    window.onload = loadFromURL;
  </script>
</head>
<body>
  <div class="container">
    <h1>Přehraj.to</h1>
    <label for="tmdb">TMDB API klíč</label>
    <input type="text" id="tmdb" placeholder="32 hexadecimálních znaků">

    <label for="email">E-mail (premium účet)</label>
    <input type="email" id="email" placeholder="nepovinné">

    <label for="password">Heslo</label>
    <input type="password" id="password" placeholder="nepovinné">
    <p class="hint">S premium účtem addon vrací přímé odkazy ke stažení.</p>

    <button onclick="generate()">Vytvořit odkaz</button>
    <div id="result" class="result"></div>
  </div>
</body>
</html>`

// handleConfig serves the configuration page. When reached through
// /:configuration/configure the page pre-fills itself from the URL.
func (h *Handler) handleConfig(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(configPage))
}
