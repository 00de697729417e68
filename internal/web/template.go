package web

const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Game Library</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #111; color: #eee; }
header { display: flex; gap: 1rem; align-items: center; padding: 1rem; background: #1b1b1b; flex-wrap: wrap; }
header input, header select, header button { font: inherit; padding: .4rem .6rem; }
.stats { display: flex; gap: 2rem; padding: .5rem 1rem; color: #aaa; }
.stats strong { color: #fff; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(160px, 1fr)); gap: 1rem; padding: 1rem; }
.card { background: #1e1e1e; border-radius: 6px; overflow: hidden; text-decoration: none; color: inherit; }
.card img { width: 100%; aspect-ratio: 1; object-fit: cover; background: #333; display: block; }
.card .meta { padding: .5rem; }
.card .title { font-weight: 600; }
.card .sub { color: #aaa; font-size: .85rem; }
.empty, .error { padding: 2rem 1rem; color: #aaa; }
.error { color: #f77; }
</style>
</head>
<body>
<header>
  <form method="get" action="/">
    <input type="search" name="q" value="{{.View.State.Query}}" placeholder="Search games" autofocus>
    <select name="sort" onchange="this.form.submit()">
      {{range .Sorts}}<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}
    </select>
    <button type="submit">Go</button>
  </form>
  <span class="sub">{{if .Current}}{{.Current}}{{end}}</span>
</header>
<section class="stats">
  <span>Total games <strong>{{.View.Stats.Total}}</strong></span>
  <span>Total playtime <strong>{{.Total}}</strong></span>
  <span>Last played <strong>{{.Last}}</strong></span>
</section>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .View.Rows}}
<main class="grid">
  {{range .View.Rows}}
  <a class="card" href="{{hires .ImageURL}}" target="_blank" rel="noopener">
    <img src="{{.ImageURL}}" alt="{{.Title}}" loading="lazy">
    <div class="meta">
      <div class="title">{{.Title}}</div>
      <div class="sub">{{short .PlayMins}} · {{date .LastPlayed}}</div>
    </div>
  </a>
  {{end}}
</main>
{{else if not .Error}}
<p class="empty">{{.View.EmptyMessage}}</p>
{{end}}
</body>
</html>
`
