package mcpserver

// RecordFormatContract describes the canonical catch record format that
// LLM consumers should follow when logging catches.
const RecordFormatContract = `# Gyotaku Record Format Contract

Every catch record logged through Gyotaku MUST follow this structure.

## Structure

` + "```" + `json
{
  "caught_at": "2025-06-14T05:30:00Z",
  "location": "Lake Ashi, north shore",
  "species": "Largemouth bass",
  "size": 42.5,
  "weight": 1350,
  "temperature": 18.2,
  "coordinate": {
    "latitude": 35.21,
    "longitude": 139.02,
    "accuracy": 8
  },
  "weather": "cloudy",
  "notes": "Topwater strike just after sunrise.",
  "photo_id": "9f1c2a3e-..."
}
` + "```" + `

## Rules

1. **` + "`" + `caught_at` + "`" + `, ` + "`" + `location` + "`" + ` and ` + "`" + `species` + "`" + ` are required.** Everything else is optional.
2. **` + "`" + `caught_at` + "`" + `** is an RFC 3339 timestamp. Future dates are accepted but flagged
   with a warning.
3. **` + "`" + `size` + "`" + `** is in centimeters, 0 to 999. **` + "`" + `weight` + "`" + `** is in grams, 0 to 99999.
   A size of 0 means "not measured" and is excluded from statistics.
4. **` + "`" + `temperature` + "`" + `** is water temperature in Celsius, 0 to 50. Values outside
   5 to 35 are accepted with a warning.
5. **` + "`" + `coordinate` + "`" + `** uses decimal degrees; latitude -90 to 90, longitude -180
   to 180. ` + "`" + `accuracy` + "`" + ` is the GPS accuracy in meters and must not be negative.
6. **` + "`" + `location` + "`" + ` and ` + "`" + `species` + "`" + `** are at most 100 characters; **` + "`" + `notes` + "`" + `** at most 500.
   Lengths are counted in user-perceived characters, so emoji count as one.
7. **` + "`" + `photo_id` + "`" + `** must reference an already uploaded photo. Photos are uploaded
   via the REST API (jpeg, png or webp, 10 MiB max).
8. Do **not** send ` + "`" + `id` + "`" + `, ` + "`" + `created_at` + "`" + ` or ` + "`" + `updated_at` + "`" + `; the server assigns them.

## Example

A minimal record:

` + "```" + `json
{
  "caught_at": "2025-03-02T14:10:00+09:00",
  "location": "Arakawa river, Toda",
  "species": "Common carp"
}
` + "```" + `
`
