// Package descriptor loads request descriptors from YAML or JSON files.
//
// A descriptor names the method, URL, headers, parameters and files of one
// request, plus optional expectations on the response:
//
//	name: upload avatar
//	method: POST
//	url: "{{baseUrl}}/users/{{userId}}/avatar"
//	timeout: 5s
//	headers:
//	  - name: Authorization
//	    value: "Bearer {{$API_TOKEN}}"
//	params:
//	  visibility: public
//	  tags: [profile, image]
//	files:
//	  - key: avatar
//	    path: ./avatar.png
//	expect:
//	  schema: ./avatar.schema.json
//	  fields:
//	    status: ok
//
// String values are interpolated with an env.Resolver and parameters keep
// the order they are written in. Relative file paths are resolved against
// the descriptor's directory and may not leave it.
package descriptor
